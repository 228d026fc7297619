package putbytes

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/protocol"
)

// Session transfers one object to a device.
//
// A Session runs its phases exactly once. It is not safe for concurrent use and
// cannot be restarted after it reaches StateInstalled or StateFailed.
type Session struct {
	id     uuid.UUID
	link   Link
	kind   ObjectKind
	object []byte
	cfg    *sessionConfig
	logger logger.Logger

	state  State
	cookie uint32
	err    error
}

// NewSession creates a session that will send object as kind over l.
//
// The object is copied, so the caller may reuse its buffer. Addressing is chosen
// with WithBank and WithFilename for storage, or WithAppInstallID for an
// application; mixing the two fails with ErrConflictingAddress.
func NewSession(l Link, kind ObjectKind, object []byte, opts ...Option) (*Session, error) {
	if l == nil {
		return nil, ErrNilLink
	}
	if uint64(len(object)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, len(object))
	}

	cfg, err := newSessionConfig(opts)
	if err != nil {
		return nil, err
	}

	if _, err := EncodeKind(kind, cfg.appScoped); err != nil {
		return nil, err
	}

	id := uuid.New()
	s := &Session{
		id:     id,
		link:   l,
		kind:   kind,
		object: bytes.Clone(object),
		cfg:    cfg,
		state:  StateIdle,
	}
	if s.object == nil {
		s.object = []byte{}
	}

	s.logger = cfg.logger.With("transfer_id", id.String(), "kind", kind.String(), "size", len(object))

	return s, nil
}

// ID returns the identifier used to correlate the session's log records.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Cookie returns the cookie issued by the device. It is zero before Prepare succeeds.
func (s *Session) Cookie() uint32 { return s.cookie }

// Err returns the error that moved the session to StateFailed, or nil.
func (s *Session) Err() error { return s.err }

// Size returns the object size in bytes.
func (s *Session) Size() int { return len(s.object) }

// Send runs prepare, transfer and install in order and returns the first failure.
func (s *Session) Send(ctx context.Context) error {
	if err := s.Prepare(ctx); err != nil {
		return err
	}
	if err := s.Transfer(ctx); err != nil {
		return err
	}

	return s.Install(ctx)
}

// Prepare announces the object to the device and stores the returned cookie.
func (s *Session) Prepare(ctx context.Context) error {
	if s.state != StateIdle {
		return invalidTransition("prepare", StateIdle, s.state)
	}

	msg, err := s.initRequest()
	if err != nil {
		return err
	}

	rsp, err := s.request(ctx, msg)
	if err != nil {
		return s.fail(&PhaseError{Phase: PhasePrepare, Err: err})
	}

	s.cookie = rsp.Cookie
	s.setState(StatePrepared)
	s.logger.Info("transfer prepared", "cookie", s.cookie, "app_scoped", s.cfg.appScoped)

	return nil
}

// Transfer puts every chunk of the object, then commits it with the checksum of
// the whole object.
func (s *Session) Transfer(ctx context.Context) error {
	if s.state != StatePrepared {
		return invalidTransition("transfer", StatePrepared, s.state)
	}
	s.setState(StateSending)

	total := len(s.object)
	for sent := 0; sent < total; {
		end := min(sent+s.cfg.chunkSize, total)
		put := &protocol.PutRequest{Cookie: s.cookie, Data: s.object[sent:end]}

		if _, err := s.request(ctx, put); err != nil {
			return s.fail(&PhaseError{Phase: PhasePut, Offset: sent, Err: err})
		}

		sent = end
		s.logger.Debug("chunk acknowledged", "sent", sent, "total", total)
		if s.cfg.progress != nil {
			s.cfg.progress.OnProgress(sent, total)
		}
	}

	crc := s.cfg.checksum(s.object)
	if _, err := s.request(ctx, &protocol.CommitRequest{Cookie: s.cookie, ObjectCRC: crc}); err != nil {
		return s.fail(&PhaseError{Phase: PhaseCommit, Err: err})
	}

	s.setState(StateCommitted)
	s.logger.Info("transfer committed", "crc", fmt.Sprintf("0x%08X", crc))

	return nil
}

// Install asks the device to install the committed object.
func (s *Session) Install(ctx context.Context) error {
	if s.state != StateCommitted {
		return invalidTransition("install", StateCommitted, s.state)
	}

	if _, err := s.request(ctx, &protocol.InstallRequest{Cookie: s.cookie}); err != nil {
		return s.fail(&PhaseError{Phase: PhaseInstall, Err: err})
	}

	s.setState(StateInstalled)
	s.logger.Info("transfer installed")

	return nil
}

func (s *Session) initRequest() (protocol.Message, error) {
	kindByte, err := EncodeKind(s.kind, s.cfg.appScoped)
	if err != nil {
		return nil, err
	}

	size := uint32(len(s.object)) //nolint:gosec // checked in NewSession

	if s.cfg.appScoped {
		return &protocol.AppInitRequest{
			ObjectSize:   size,
			ObjectType:   kindByte,
			AppInstallID: s.cfg.appInstallID,
		}, nil
	}

	return &protocol.InitRequest{
		ObjectSize: size,
		ObjectType: kindByte,
		Bank:       s.cfg.bank,
		Filename:   s.cfg.filename,
	}, nil
}

// request sends msg and waits for its response. It returns ErrRejected on a NACK
// and the link or decode error otherwise.
func (s *Session) request(ctx context.Context, msg protocol.Message) (*protocol.Response, error) {
	if err := s.link.SendMessage(ctx, msg); err != nil {
		return nil, err
	}

	payload, err := s.link.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
	if err != nil {
		return nil, err
	}

	rsp, err := protocol.ParseResponse(payload)
	if err != nil {
		return nil, err
	}

	if !rsp.IsACK() {
		return nil, ErrRejected
	}

	return rsp, nil
}

func (s *Session) fail(err *PhaseError) error {
	s.err = err
	s.setState(StateFailed)
	s.logger.Error("transfer failed", "phase", err.Phase.String(), "state", s.state, "error", err)

	return err
}

func (s *Session) setState(newState State) {
	prevState := s.state
	if !canTransition(prevState, newState) {
		// Operations check the state before acting; reaching here is a bug.
		panic(fmt.Sprintf("putbytes: illegal transition %s -> %s", prevState, newState))
	}

	s.state = newState
	for _, h := range s.cfg.stateHandlers {
		if h != nil {
			h(prevState, newState)
		}
	}
}
