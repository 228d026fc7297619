package link

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/protocol"
)

const (
	// DefaultQueueSize is the number of undelivered frames buffered per endpoint.
	DefaultQueueSize = 16

	// DefaultDialTimeout bounds the TCP dial in Dial.
	DefaultDialTimeout = 3 * time.Second

	// MinMaxPayloadSize is the smallest accepted WithMaxPayloadSize value; a full
	// 2000 byte put plus its header must fit.
	MinMaxPayloadSize = 2048
)

type config struct {
	logger          logger.Logger
	responseTimeout time.Duration
	dialTimeout     time.Duration
	maxPayloadSize  int
	queueSize       int
	endpoints       []protocol.Endpoint
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		logger:         logger.GetLogger(),
		dialTimeout:    DefaultDialTimeout,
		maxPayloadSize: protocol.MaxFramePayload,
		queueSize:      DefaultQueueSize,
		endpoints:      []protocol.Endpoint{protocol.EndpointPutBytes},
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option configures a Conn.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error { return f(cfg) }

// WithLogger sets the logger of the link.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l == nil {
			return errors.New("link: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

// WithResponseTimeout bounds each ReadFromEndpoint call. Zero, the default,
// waits until the context is done or the link closes.
func WithResponseTimeout(d time.Duration) Option {
	return optFunc(func(cfg *config) error {
		if d < 0 {
			return errors.New("link: response timeout must not be negative")
		}
		cfg.responseTimeout = d

		return nil
	})
}

// WithDialTimeout sets the TCP dial timeout used by Dial.
func WithDialTimeout(d time.Duration) Option {
	return optFunc(func(cfg *config) error {
		if d <= 0 {
			return errors.New("link: dial timeout must be positive")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithMaxPayloadSize sets the largest frame payload accepted from the peer.
func WithMaxPayloadSize(n int) Option {
	return optFunc(func(cfg *config) error {
		if n < MinMaxPayloadSize || n > protocol.MaxFramePayload {
			return fmt.Errorf("link: max payload size %d out of range [%d, %d]",
				n, MinMaxPayloadSize, protocol.MaxFramePayload)
		}
		cfg.maxPayloadSize = n

		return nil
	})
}

// WithQueueSize sets the number of frames buffered per endpoint before new
// arrivals are dropped.
func WithQueueSize(n int) Option {
	return optFunc(func(cfg *config) error {
		if n < 1 {
			return errors.New("link: queue size must be >= 1")
		}
		cfg.queueSize = n

		return nil
	})
}

// WithEndpoints registers endpoints whose frames are buffered from the start,
// in addition to protocol.EndpointPutBytes. Frames for an endpoint that is
// neither registered nor read with ReadFromEndpoint are dropped.
func WithEndpoints(eps ...protocol.Endpoint) Option {
	return optFunc(func(cfg *config) error {
		cfg.endpoints = append(cfg.endpoints, eps...)
		return nil
	})
}
