package link

import "errors"

var (
	// ErrClosed indicates that the link was closed, locally or by a read failure.
	ErrClosed = errors.New("link: closed")

	// ErrResponseTimeout indicates that no frame arrived on the endpoint within
	// the configured response timeout.
	ErrResponseTimeout = errors.New("link: response timeout")

	// ErrNilTransport indicates that New was given a nil io.ReadWriteCloser.
	ErrNilTransport = errors.New("link: transport is nil")
)
