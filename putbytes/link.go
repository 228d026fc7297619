package putbytes

import (
	"context"

	"github.com/arloliu/go-putbytes/protocol"
)

// Link is the packet link a Session talks over.
//
// The session sends one request and then reads exactly one response from
// protocol.EndpointPutBytes before doing anything else. It never closes the
// link, and it does not guard against other traffic on the same endpoint.
// *link.Conn implements Link.
type Link interface {
	// SendMessage encodes and sends msg.
	SendMessage(ctx context.Context, msg protocol.Message) error
	// ReadFromEndpoint blocks until a packet for ep arrives and returns its payload.
	ReadFromEndpoint(ctx context.Context, ep protocol.Endpoint) ([]byte, error)
}
