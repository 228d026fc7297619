package protocol

import "errors"

var (
	// ErrShortFrame indicates that the stream ended inside a frame header or payload.
	ErrShortFrame = errors.New("protocol: short frame")

	// ErrFrameTooLarge indicates a frame payload above the permitted size.
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")
)

var (
	// ErrShortMessage indicates a message body shorter than its fixed fields.
	ErrShortMessage = errors.New("protocol: short message")

	// ErrTrailingBytes indicates extra bytes after a complete message body.
	ErrTrailingBytes = errors.New("protocol: trailing bytes after message")

	// ErrUnknownCommand indicates an unrecognised PutBytes command byte.
	ErrUnknownCommand = errors.New("protocol: unknown putbytes command")

	// ErrUnknownResult indicates a response result byte that is neither ACK nor NACK.
	ErrUnknownResult = errors.New("protocol: unknown response result")

	// ErrInvalidFilename indicates a filename that cannot be NUL-terminated on the wire.
	ErrInvalidFilename = errors.New("protocol: filename contains NUL byte")

	// ErrMissingTerminator indicates a filename without its NUL terminator.
	ErrMissingTerminator = errors.New("protocol: filename not NUL-terminated")

	// ErrLengthMismatch indicates a put whose declared length differs from its data.
	ErrLengthMismatch = errors.New("protocol: put length does not match data")
)
