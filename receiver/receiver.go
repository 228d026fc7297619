package receiver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-putbytes/link"
	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/protocol"
	"github.com/arloliu/go-putbytes/putbytes"
	"github.com/arloliu/go-putbytes/stm32crc"
)

// Object is a received object as handed to the install function.
type Object struct {
	Cookie    uint32
	Kind      putbytes.ObjectKind
	AppScoped bool
	// Bank and Filename address system-level objects.
	Bank     uint8
	Filename string
	// AppInstallID addresses app-scoped objects.
	AppInstallID uint32
	// Data is the object payload and CRC its STM32 checksum.
	Data []byte
	CRC  uint32
}

// maxPrealloc bounds the buffer reserved on init. The rest grows as puts
// arrive, so a bare init cannot pin its announced size.
const maxPrealloc = 64 << 10

type pending struct {
	mu        sync.Mutex
	obj       *Object
	size      int
	committed bool
}

// Receiver is the device side of PutBytes. It is safe for concurrent use; each
// cookie names an independent transfer.
type Receiver struct {
	cfg     *config
	logger  logger.Logger
	cookies *cookieGenerator
	pending *xsync.MapOf[uint32, *pending]
}

// New creates a receiver.
func New(opts ...Option) (*Receiver, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Receiver{
		cfg:     cfg,
		logger:  cfg.logger,
		cookies: newCookieGenerator(),
		pending: xsync.NewMapOf[uint32, *pending](),
	}, nil
}

// Pending returns the number of transfers that have been started and not yet
// installed, aborted or rejected.
func (r *Receiver) Pending() int {
	return r.pending.Size()
}

// Handle processes one request and returns the response to send back.
//
// A NACK to a put, commit or install ends the transfer it names: the sender
// treats any rejection as final, so the pending object is dropped.
func (r *Receiver) Handle(req protocol.Request) *protocol.Response {
	cookie, hasCookie := requestCookie(req)

	var err error
	if r.cfg.nackOn[req.Command()] {
		err = ErrForcedNack
	} else {
		switch m := req.(type) {
		case *protocol.InitRequest:
			cookie, err = r.begin(m.ObjectType, m.ObjectSize, func(obj *Object) {
				obj.Bank = m.Bank
				obj.Filename = m.Filename
			})
		case *protocol.AppInitRequest:
			cookie, err = r.begin(m.ObjectType, m.ObjectSize, func(obj *Object) {
				obj.AppInstallID = m.AppInstallID
			})
		case *protocol.PutRequest:
			err = r.put(m)
		case *protocol.CommitRequest:
			err = r.commit(m)
		case *protocol.InstallRequest:
			err = r.install(m)
		case *protocol.AbortRequest:
			err = r.abort(m)
		default:
			err = fmt.Errorf("%w: %s", protocol.ErrUnknownCommand, req.Command())
		}
	}

	if err != nil {
		r.reject(req, err)
		if hasCookie {
			r.drop(cookie)
		}

		return protocol.NACK()
	}

	return protocol.ACK(cookie)
}

// Serve answers PutBytes requests read from l until ctx is done or the link
// fails. Malformed requests are answered with a NACK. It returns nil when ctx
// ends the loop.
//
// Transfers started over l belong to it: those still pending when Serve
// returns are dropped.
func (r *Receiver) Serve(ctx context.Context, l putbytes.Link) error {
	owned := make(map[uint32]struct{})
	defer func() {
		for cookie := range owned {
			r.drop(cookie)
		}
	}()

	for {
		payload, err := l.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, link.ErrResponseTimeout) {
				continue
			}

			return err
		}

		var rsp *protocol.Response
		req, err := protocol.ParseRequest(payload)
		if err != nil {
			r.logger.Warn("receiver: malformed request", "len", len(payload), "error", err)
			rsp = protocol.NACK()
		} else {
			rsp = r.Handle(req)
			trackOwnership(owned, req, rsp)
		}

		if err := l.SendMessage(ctx, rsp); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}
	}
}

func trackOwnership(owned map[uint32]struct{}, req protocol.Request, rsp *protocol.Response) {
	switch req.(type) {
	case *protocol.InitRequest, *protocol.AppInitRequest:
		if rsp.IsACK() {
			owned[rsp.Cookie] = struct{}{}
		}
	case *protocol.InstallRequest, *protocol.AbortRequest:
		cookie, _ := requestCookie(req)
		delete(owned, cookie)
	default:
		if cookie, ok := requestCookie(req); ok && !rsp.IsACK() {
			delete(owned, cookie)
		}
	}
}

func requestCookie(req protocol.Request) (uint32, bool) {
	switch m := req.(type) {
	case *protocol.PutRequest:
		return m.Cookie, true
	case *protocol.CommitRequest:
		return m.Cookie, true
	case *protocol.InstallRequest:
		return m.Cookie, true
	case *protocol.AbortRequest:
		return m.Cookie, true
	default:
		return 0, false
	}
}

func (r *Receiver) drop(cookie uint32) {
	if _, ok := r.pending.LoadAndDelete(cookie); ok {
		r.logger.Info("receiver: transfer dropped", "cookie", cookie)
	}
}

func (r *Receiver) begin(kindByte byte, size uint32, address func(*Object)) (uint32, error) {
	kind, appScoped := putbytes.DecodeKind(kindByte)
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnsupportedObject, kindByte)
	}
	if uint64(size) > uint64(r.cfg.maxObjectSize) {
		return 0, fmt.Errorf("%w: %d > %d", ErrObjectTooLarge, size, r.cfg.maxObjectSize)
	}
	if n := r.pending.Size(); n >= r.cfg.maxPending {
		return 0, fmt.Errorf("%w: %d", ErrTooManyPending, n)
	}

	cookie := r.cookies.next()
	obj := &Object{
		Cookie:    cookie,
		Kind:      kind,
		AppScoped: appScoped,
		Data:      make([]byte, 0, min(int(size), maxPrealloc)),
	}
	address(obj)

	r.pending.Store(cookie, &pending{obj: obj, size: int(size)})
	r.logger.Info("receiver: transfer started", "cookie", cookie, "kind", kind.String(), "size", size, "app_scoped", appScoped)

	return cookie, nil
}

func (r *Receiver) lookup(cookie uint32) (*pending, error) {
	p, ok := r.pending.Load(cookie)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%08X", ErrUnknownCookie, cookie)
	}

	return p, nil
}

func (r *Receiver) put(m *protocol.PutRequest) error {
	p, err := r.lookup(m.Cookie)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.committed {
		return ErrAlreadyCommitted
	}
	if len(p.obj.Data)+len(m.Data) > p.size {
		return fmt.Errorf("%w: %d + %d > %d", ErrOverflow, len(p.obj.Data), len(m.Data), p.size)
	}
	p.obj.Data = append(p.obj.Data, m.Data...)

	return nil
}

func (r *Receiver) commit(m *protocol.CommitRequest) error {
	p, err := r.lookup(m.Cookie)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.committed {
		return ErrAlreadyCommitted
	}
	if len(p.obj.Data) != p.size {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(p.obj.Data), p.size)
	}

	crc := stm32crc.Checksum(p.obj.Data)
	if crc != m.ObjectCRC {
		return fmt.Errorf("%w: computed 0x%08X, sender 0x%08X", ErrChecksumMismatch, crc, m.ObjectCRC)
	}

	p.obj.CRC = crc
	p.committed = true
	r.logger.Info("receiver: transfer committed", "cookie", m.Cookie, "crc", fmt.Sprintf("0x%08X", crc))

	return nil
}

func (r *Receiver) install(m *protocol.InstallRequest) error {
	p, err := r.lookup(m.Cookie)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.committed {
		return ErrNotCommitted
	}
	r.pending.Delete(m.Cookie)

	if r.cfg.install != nil {
		if err := r.cfg.install(p.obj); err != nil {
			return fmt.Errorf("receiver: install: %w", err)
		}
	}
	r.logger.Info("receiver: object installed", "cookie", m.Cookie, "kind", p.obj.Kind.String(), "size", len(p.obj.Data))

	return nil
}

func (r *Receiver) abort(m *protocol.AbortRequest) error {
	if _, ok := r.pending.LoadAndDelete(m.Cookie); !ok {
		return fmt.Errorf("%w: 0x%08X", ErrUnknownCookie, m.Cookie)
	}
	r.logger.Info("receiver: transfer aborted", "cookie", m.Cookie)

	return nil
}

func (r *Receiver) reject(req protocol.Request, err error) {
	r.logger.Warn("receiver: request rejected", "command", req.Command().String(), "error", err)
}
