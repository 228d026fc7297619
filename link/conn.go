package link

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-putbytes/internal/pool"
	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/protocol"
)

// Conn is a packet link over a byte stream.
//
// SendMessage and ReadFromEndpoint may be called from multiple goroutines.
type Conn struct {
	cfg    *config
	logger logger.Logger
	rwc    io.ReadWriteCloser

	writeMu sync.Mutex
	queues  *xsync.MapOf[protocol.Endpoint, chan []byte]

	closeOnce sync.Once
	done      chan struct{}
	cause     error // written once before done is closed

	metrics Metrics
}

// New creates a link over rwc and starts its reader goroutine.
//
// The Conn owns rwc from now on and closes it on Close or on the first read or
// write failure.
func New(rwc io.ReadWriteCloser, opts ...Option) (*Conn, error) {
	if rwc == nil {
		return nil, ErrNilTransport
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return newConn(rwc, cfg), nil
}

// Dial connects to a device listening on the TCP address addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.dialTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "link: dial %s", addr)
	}

	cfg.logger.Debug("link: connected", "remote", tcpConn.RemoteAddr().String())

	return newConn(tcpConn, cfg), nil
}

func newConn(rwc io.ReadWriteCloser, cfg *config) *Conn {
	c := &Conn{
		cfg:    cfg,
		logger: cfg.logger,
		rwc:    rwc,
		queues: xsync.NewMapOf[protocol.Endpoint, chan []byte](),
		done:   make(chan struct{}),
	}
	for _, ep := range cfg.endpoints {
		c.queue(ep)
	}

	go c.readLoop()

	return c
}

// SendMessage encodes msg into a frame and writes it.
func (c *Conn) SendMessage(ctx context.Context, msg protocol.Message) error {
	f, err := protocol.NewFrame(msg)
	if err != nil {
		return err
	}

	return c.sendFrame(ctx, f)
}

// SendPacket writes payload as one frame on endpoint ep.
func (c *Conn) SendPacket(ctx context.Context, ep protocol.Endpoint, payload []byte) error {
	return c.sendFrame(ctx, &protocol.Frame{Endpoint: ep, Payload: payload})
}

func (c *Conn) sendFrame(ctx context.Context, f *protocol.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isClosed() {
		return c.closedErr()
	}

	buf, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if wd, ok := c.rwc.(interface{ SetWriteDeadline(time.Time) error }); ok {
		deadline, _ := ctx.Deadline()
		if err := wd.SetWriteDeadline(deadline); err != nil {
			c.logger.Debug("link: set write deadline failed", "error", err)
		}
	}

	if _, err := c.rwc.Write(buf); err != nil {
		c.metrics.incSendErr()
		err = errors.Wrapf(err, "link: write frame to %s", f.Endpoint)
		c.fail(err)

		return err
	}

	c.metrics.incFrameSend(len(f.Payload))
	c.logger.Debug("link: frame sent", "endpoint", f.Endpoint, "len", len(f.Payload))

	return nil
}

// ReadFromEndpoint blocks until a frame for ep arrives and returns its payload.
//
// The first call for ep registers it; frames for ep that arrived earlier were
// dropped unless ep was given to WithEndpoints.
//
// Frames that arrived before the call are returned first, even after the link
// has closed. It fails with ctx.Err() when ctx is done, ErrResponseTimeout when
// the configured response timeout elapses, or an error wrapping ErrClosed.
func (c *Conn) ReadFromEndpoint(ctx context.Context, ep protocol.Endpoint) ([]byte, error) {
	q := c.queue(ep)

	select {
	case payload := <-q:
		return payload, nil
	default:
	}

	var timeout <-chan time.Time
	if c.cfg.responseTimeout > 0 {
		timer := pool.AcquireTimer(c.cfg.responseTimeout)
		defer pool.ReleaseTimer(timer)
		timeout = timer.C
	}

	select {
	case payload := <-q:
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.closedErr()
	case <-timeout:
		return nil, fmt.Errorf("%w: no frame on %s within %v", ErrResponseTimeout, ep, c.cfg.responseTimeout)
	}
}

// Close closes the link and the underlying transport.
// Pending and future ReadFromEndpoint calls fail with ErrClosed.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cause = ErrClosed
		close(c.done)
		err = c.rwc.Close()
	})

	return err
}

// Err returns the reason the link closed, or nil while it is open.
func (c *Conn) Err() error {
	if !c.isClosed() {
		return nil
	}

	return c.closedErr()
}

// Metrics returns the counters of the link.
func (c *Conn) Metrics() *Metrics {
	return &c.metrics
}

// GetLogger returns the logger of the link.
func (c *Conn) GetLogger() logger.Logger {
	return c.logger
}

func (c *Conn) queue(ep protocol.Endpoint) chan []byte {
	q, _ := c.queues.LoadOrCompute(ep, func() chan []byte {
		return make(chan []byte, c.cfg.queueSize)
	})

	return q
}

func (c *Conn) readLoop() {
	for {
		f, err := protocol.ReadFrame(c.rwc, c.cfg.maxPayloadSize)
		if err != nil {
			if c.isClosed() {
				return
			}

			if errors.Is(err, io.EOF) {
				c.logger.Info("link: peer closed the stream")
			} else {
				c.logger.Error("link: read frame failed", "error", err)
			}
			c.fail(errors.Wrap(err, "link: read frame"))

			return
		}

		c.metrics.incFrameRecv(len(f.Payload))
		c.logger.Debug("link: frame received", "endpoint", f.Endpoint, "len", len(f.Payload))

		q, ok := c.queues.Load(f.Endpoint)
		if !ok {
			c.metrics.incFrameDrop()
			c.logger.Debug("link: frame for unregistered endpoint dropped", "endpoint", f.Endpoint, "len", len(f.Payload))

			continue
		}

		select {
		case q <- f.Payload:
		default:
			c.metrics.incFrameDrop()
			c.logger.Warn("link: endpoint queue full, frame dropped",
				"endpoint", f.Endpoint, "len", len(f.Payload), "queue_size", c.cfg.queueSize)
		}
	}
}

func (c *Conn) fail(cause error) {
	c.closeOnce.Do(func() {
		c.cause = cause
		close(c.done)
		_ = c.rwc.Close()
	})
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) closedErr() error {
	if c.cause == nil || c.cause == ErrClosed { //nolint:errorlint // sentinel identity
		return ErrClosed
	}

	return fmt.Errorf("%w: %w", ErrClosed, c.cause)
}
