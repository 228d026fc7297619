//nolint:errcheck
package putbytes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-putbytes/protocol"
)

// MockLink implements Link for testing
type MockLink struct {
	mock.Mock
}

var _ Link = (*MockLink)(nil)

func (m *MockLink) SendMessage(ctx context.Context, msg protocol.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockLink) ReadFromEndpoint(ctx context.Context, ep protocol.Endpoint) ([]byte, error) {
	args := m.Called(ctx, ep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

func ackBytes(cookie uint32) []byte {
	b, _ := protocol.ACK(cookie).MarshalBinary()
	return b
}

func TestSession_MockLink_Sequence(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	m := &MockLink{}
	m.On("ReadFromEndpoint", ctx, protocol.EndpointPutBytes).Return(ackBytes(0xABCD), nil)
	m.On("SendMessage", ctx, &protocol.InitRequest{
		ObjectSize: 3,
		ObjectType: byte(KindFile),
		Filename:   "f",
	}).Return(nil).Once()
	m.On("SendMessage", ctx, &protocol.PutRequest{Cookie: 0xABCD, Data: []byte{1, 2, 3}}).Return(nil).Once()
	m.On("SendMessage", ctx, mock.MatchedBy(func(msg protocol.Message) bool {
		c, ok := msg.(*protocol.CommitRequest)
		return ok && c.Cookie == 0xABCD
	})).Return(nil).Once()
	m.On("SendMessage", ctx, &protocol.InstallRequest{Cookie: 0xABCD}).Return(nil).Once()

	s := newTestSession(t, m, KindFile, []byte{1, 2, 3}, WithFilename("f"))
	require.NoError(s.Send(ctx))
	require.Equal(StateInstalled, s.State())

	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "ReadFromEndpoint", 4)
}

func TestSession_MockLink_NackOnInstall(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	nack, _ := protocol.NACK().MarshalBinary()

	m := &MockLink{}
	m.On("SendMessage", ctx, mock.Anything).Return(nil)
	m.On("ReadFromEndpoint", ctx, protocol.EndpointPutBytes).Return(ackBytes(1), nil).Times(3)
	m.On("ReadFromEndpoint", ctx, protocol.EndpointPutBytes).Return(nack, nil).Once()

	s := newTestSession(t, m, KindWorker, []byte{0xAA})
	err := s.Send(ctx)
	require.ErrorIs(err, ErrRejected)

	phase, ok := FailedPhase(err)
	require.True(ok)
	require.Equal(PhaseInstall, phase)
	require.Equal(StateFailed, s.State())
	m.AssertNumberOfCalls(t, "SendMessage", 4)
}
