package putbytes

import (
	"context"
	"errors"

	"github.com/arloliu/go-putbytes/protocol"
)

var (
	errFakeSend = errors.New("fake: write failed")
	errFakeRead = errors.New("fake: no response")
)

// fakeLink is a scripted device. It decodes every request it is sent and
// queues an ACK carrying cookie unless told otherwise.
type fakeLink struct {
	cookie uint32

	// nack returns true for requests the device should reject; n is the zero-based
	// index of the request.
	nack func(n int, req protocol.Request) bool
	// failSend and failRead inject transport errors at request index n; -1 disables.
	failSend int
	failRead int
	// rawResponse, if set, replaces every response payload.
	rawResponse []byte

	requests []protocol.Request
	pending  [][]byte
}

var _ Link = (*fakeLink)(nil)

func newFakeLink(cookie uint32) *fakeLink {
	return &fakeLink{cookie: cookie, failSend: -1, failRead: -1}
}

func (f *fakeLink) SendMessage(_ context.Context, msg protocol.Message) error {
	n := len(f.requests)
	if n == f.failSend {
		return errFakeSend
	}

	b, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	req, err := protocol.ParseRequest(b)
	if err != nil {
		return err
	}
	f.requests = append(f.requests, req)

	rsp := protocol.ACK(f.cookie)
	if f.nack != nil && f.nack(n, req) {
		rsp = protocol.NACK()
	}
	payload, _ := rsp.MarshalBinary()
	if f.rawResponse != nil {
		payload = f.rawResponse
	}
	f.pending = append(f.pending, payload)

	return nil
}

func (f *fakeLink) ReadFromEndpoint(ctx context.Context, ep protocol.Endpoint) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ep != protocol.EndpointPutBytes || len(f.requests)-1 == f.failRead || len(f.pending) == 0 {
		return nil, errFakeRead
	}

	payload := f.pending[0]
	f.pending = f.pending[1:]

	return payload, nil
}

func (f *fakeLink) commands() []protocol.Command {
	cmds := make([]protocol.Command, 0, len(f.requests))
	for _, r := range f.requests {
		cmds = append(cmds, r.Command())
	}

	return cmds
}

func (f *fakeLink) puts() []*protocol.PutRequest {
	var puts []*protocol.PutRequest
	for _, r := range f.requests {
		if p, ok := r.(*protocol.PutRequest); ok {
			puts = append(puts, p)
		}
	}

	return puts
}

func nackCommand(cmd protocol.Command) func(int, protocol.Request) bool {
	return func(_ int, req protocol.Request) bool { return req.Command() == cmd }
}

func nackIndex(i int) func(int, protocol.Request) bool {
	return func(n int, _ protocol.Request) bool { return n == i }
}
