// Package link provides a framed, endpoint-multiplexed packet link to a device.
//
// A Conn wraps any io.ReadWriteCloser (a TCP socket, a serial port, one end of
// net.Pipe) and exchanges protocol frames over it. A background reader decodes
// incoming frames and queues each payload by endpoint, so a caller waiting on one
// endpoint is not disturbed by unrelated traffic such as device log messages.
//
// Conn satisfies putbytes.Link. Request/response pairing is the caller's job: a
// Conn only guarantees that frames on one endpoint are delivered in arrival order.
//
// Timeout policy lives here rather than in the transfer session: set
// WithResponseTimeout to bound every ReadFromEndpoint call, or pass a context with
// a deadline.
package link
