package receiver

import "errors"

// Reasons a request is rejected. They are logged and never sent: on the wire
// every rejection is a plain NACK.
var (
	ErrUnknownCookie     = errors.New("receiver: unknown cookie")
	ErrObjectTooLarge    = errors.New("receiver: object exceeds max object size")
	ErrOverflow          = errors.New("receiver: put exceeds declared object size")
	ErrLengthMismatch    = errors.New("receiver: received length differs from declared size")
	ErrChecksumMismatch  = errors.New("receiver: object checksum mismatch")
	ErrNotCommitted      = errors.New("receiver: object not committed")
	ErrAlreadyCommitted  = errors.New("receiver: object already committed")
	ErrForcedNack        = errors.New("receiver: command configured to be rejected")
	ErrUnsupportedObject = errors.New("receiver: unsupported object kind")
	ErrTooManyPending    = errors.New("receiver: too many pending transfers")
)
