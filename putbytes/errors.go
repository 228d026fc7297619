package putbytes

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected indicates that the device answered a request with a NACK.
	ErrRejected = errors.New("putbytes: rejected by device")

	// ErrTransport indicates that the link failed to deliver a request or to
	// produce a valid response.
	ErrTransport = errors.New("putbytes: transport failure")
)

var (
	// ErrInvalidTransition indicates an operation called in a state that does not allow it.
	ErrInvalidTransition = errors.New("putbytes: invalid state transition")

	// ErrInvalidKind indicates an object kind that is unknown or does not fit in 7 bits.
	ErrInvalidKind = errors.New("putbytes: invalid object kind")

	// ErrConflictingAddress indicates that an app install ID was combined with a
	// bank or filename. A transfer targets either storage or an application.
	ErrConflictingAddress = errors.New("putbytes: app install id cannot be combined with bank or filename")

	// ErrNilLink indicates that NewSession was given a nil Link.
	ErrNilLink = errors.New("putbytes: link is nil")

	// ErrObjectTooLarge indicates an object whose size does not fit the 32-bit size field.
	ErrObjectTooLarge = errors.New("putbytes: object too large")
)

// Phase names a step of the transfer handshake.
type Phase uint8

const (
	PhasePrepare Phase = iota + 1
	PhasePut
	PhaseCommit
	PhaseInstall
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhasePrepare:
		return "prepare"
	case PhasePut:
		return "put"
	case PhaseCommit:
		return "commit"
	case PhaseInstall:
		return "install"
	default:
		return "unknown"
	}
}

// PhaseError reports the step at which a transfer failed.
//
// It matches ErrRejected when the device sent a NACK, and ErrTransport plus the
// underlying cause when the link failed.
type PhaseError struct {
	Phase Phase
	// Offset is the payload offset of the failed chunk. Only set for PhasePut.
	Offset int
	// Err is ErrRejected or the transport cause.
	Err error
}

func (e *PhaseError) Error() string {
	where := e.Phase.String()
	if e.Phase == PhasePut {
		where = fmt.Sprintf("put at offset %d", e.Offset)
	}

	if e.Rejected() {
		return fmt.Sprintf("putbytes: %s rejected by device", where)
	}

	return fmt.Sprintf("putbytes: %s transport failure: %v", where, e.Err)
}

// Rejected reports whether the failure was a device NACK.
func (e *PhaseError) Rejected() bool {
	return errors.Is(e.Err, ErrRejected)
}

func (e *PhaseError) Unwrap() []error {
	if e.Rejected() {
		return []error{e.Err}
	}

	return []error{ErrTransport, e.Err}
}

// IsRejected reports whether err is a device NACK.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsTransport reports whether err is a link failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// FailedPhase returns the phase a transfer failed at, if err carries one.
func FailedPhase(err error) (Phase, bool) {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase, true
	}

	return 0, false
}
