package putbytes

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/stm32crc"
)

const (
	// DefaultChunkSize is the largest chunk the device link reliably carries in one packet.
	DefaultChunkSize = 2000

	// MaxChunkSize is the largest chunk that fits a frame with the put header.
	MaxChunkSize = 65535 - 9
)

type sessionConfig struct {
	bank         uint8
	bankSet      bool
	filename     string
	appInstallID uint32
	appScoped    bool

	chunkSize     int
	checksum      func([]byte) uint32
	progress      ProgressObserver
	stateHandlers []StateChangeHandler
	logger        logger.Logger
}

func newSessionConfig(opts []Option) (*sessionConfig, error) {
	cfg := &sessionConfig{
		chunkSize: DefaultChunkSize,
		checksum:  stm32crc.Checksum,
		logger:    logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.appScoped && (cfg.bankSet || cfg.filename != "") {
		return nil, ErrConflictingAddress
	}

	return cfg, nil
}

// Option configures a Session.
type Option interface {
	apply(*sessionConfig) error
}

type optFunc func(*sessionConfig) error

func (f optFunc) apply(cfg *sessionConfig) error { return f(cfg) }

// WithBank sets the storage bank of a system-level transfer.
// It cannot be combined with WithAppInstallID.
func WithBank(bank uint8) Option {
	return optFunc(func(cfg *sessionConfig) error {
		cfg.bank = bank
		cfg.bankSet = true

		return nil
	})
}

// WithFilename sets the destination filename of a system-level transfer.
// It cannot be combined with WithAppInstallID.
func WithFilename(name string) Option {
	return optFunc(func(cfg *sessionConfig) error {
		for i := 0; i < len(name); i++ {
			if name[i] == 0 {
				return fmt.Errorf("putbytes: filename %q contains NUL byte", name)
			}
		}
		cfg.filename = name

		return nil
	})
}

// WithAppInstallID addresses the transfer to an installed application. The
// app-scope bit is then set in the encoded kind.
func WithAppInstallID(id uint32) Option {
	return optFunc(func(cfg *sessionConfig) error {
		cfg.appInstallID = id
		cfg.appScoped = true

		return nil
	})
}

// WithChunkSize sets the maximum put size. Defaults to DefaultChunkSize.
func WithChunkSize(n int) Option {
	return optFunc(func(cfg *sessionConfig) error {
		if n < 1 || n > MaxChunkSize {
			return fmt.Errorf("putbytes: chunk size %d out of range [1, %d]", n, MaxChunkSize)
		}
		cfg.chunkSize = n

		return nil
	})
}

// WithChecksum replaces the commit checksum function. Defaults to stm32crc.Checksum,
// which is what the device computes.
func WithChecksum(fn func([]byte) uint32) Option {
	return optFunc(func(cfg *sessionConfig) error {
		if fn == nil {
			return errors.New("putbytes: checksum function must not be nil")
		}
		cfg.checksum = fn

		return nil
	})
}

// WithProgress sets the progress observer.
func WithProgress(o ProgressObserver) Option {
	return optFunc(func(cfg *sessionConfig) error {
		cfg.progress = o
		return nil
	})
}

// WithStateChangeHandler adds handlers invoked after every state transition.
func WithStateChangeHandler(handlers ...StateChangeHandler) Option {
	return optFunc(func(cfg *sessionConfig) error {
		cfg.stateHandlers = append(cfg.stateHandlers, handlers...)
		return nil
	})
}

// WithLogger sets the logger of the session.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *sessionConfig) error {
		if l == nil {
			return errors.New("putbytes: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
