package receiver

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/protocol"
)

const (
	// DefaultMaxObjectSize is the largest object accepted when WithMaxObjectSize is not given.
	DefaultMaxObjectSize = 16 << 20

	// DefaultMaxPending is the number of concurrent transfers accepted when
	// WithMaxPending is not given.
	DefaultMaxPending = 16
)

// InstallFunc receives a committed object on install. A non-nil error makes
// the receiver NACK the install request.
type InstallFunc func(obj *Object) error

type config struct {
	logger        logger.Logger
	maxObjectSize int
	maxPending    int
	install       InstallFunc
	nackOn        map[protocol.Command]bool
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		logger:        logger.GetLogger(),
		maxObjectSize: DefaultMaxObjectSize,
		maxPending:    DefaultMaxPending,
		nackOn:        make(map[protocol.Command]bool),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option configures a Receiver.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error { return f(cfg) }

// WithLogger sets the logger of the receiver.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l == nil {
			return errors.New("receiver: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

// WithMaxObjectSize sets the largest object size an init request may announce.
func WithMaxObjectSize(n int) Option {
	return optFunc(func(cfg *config) error {
		if n < 0 {
			return fmt.Errorf("receiver: max object size %d is negative", n)
		}
		cfg.maxObjectSize = n

		return nil
	})
}

// WithMaxPending sets how many transfers may be pending at once. Further
// init requests are rejected until one completes.
func WithMaxPending(n int) Option {
	return optFunc(func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("receiver: max pending %d must be >= 1", n)
		}
		cfg.maxPending = n

		return nil
	})
}

// WithInstallFunc sets the function that receives installed objects.
func WithInstallFunc(fn InstallFunc) Option {
	return optFunc(func(cfg *config) error {
		cfg.install = fn
		return nil
	})
}

// WithNackOn makes the receiver reject every request with one of the given
// commands, regardless of its content.
func WithNackOn(cmds ...protocol.Command) Option {
	return optFunc(func(cfg *config) error {
		for _, cmd := range cmds {
			cfg.nackOn[cmd] = true
		}

		return nil
	})
}
