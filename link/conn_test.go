package link

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/protocol"
)

func newPipePair(t *testing.T, opts ...Option) (*Conn, *Conn) {
	t.Helper()

	a, b := net.Pipe()
	opts = append([]Option{WithLogger(logger.NewSlogWriter(io.Discard, logger.DebugLevel, false))}, opts...)

	host, err := New(a, opts...)
	require.NoError(t, err)
	dev, err := New(b, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = host.Close()
		_ = dev.Close()
	})

	return host, dev
}

func TestConn_SendAndReadFromEndpoint(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	host, dev := newPipePair(t)

	msg := &protocol.InstallRequest{Cookie: 99}
	require.NoError(host.SendMessage(ctx, msg))

	payload, err := dev.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
	require.NoError(err)

	req, err := protocol.ParseRequest(payload)
	require.NoError(err)
	require.Equal(msg, req)

	require.Eventually(func() bool {
		return dev.Metrics().FrameRecvCount.Load() == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(uint64(1), host.Metrics().FrameSendCount.Load())
	require.Equal(uint64(5), host.Metrics().ByteSendCount.Load())
}

func TestConn_EndpointMultiplexing(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	const logEndpoint protocol.Endpoint = 0x07D0

	host, dev := newPipePair(t, WithEndpoints(logEndpoint))

	require.NoError(dev.SendPacket(ctx, logEndpoint, []byte("boot")))
	require.NoError(dev.SendMessage(ctx, protocol.ACK(1)))
	require.NoError(dev.SendPacket(ctx, logEndpoint, []byte("ready")))

	payload, err := host.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
	require.NoError(err)
	rsp, err := protocol.ParseResponse(payload)
	require.NoError(err)
	require.True(rsp.IsACK())

	first, err := host.ReadFromEndpoint(ctx, logEndpoint)
	require.NoError(err)
	require.Equal("boot", string(first))

	second, err := host.ReadFromEndpoint(ctx, logEndpoint)
	require.NoError(err)
	require.Equal("ready", string(second))
}

func TestConn_ReadFromEndpoint_ContextDone(t *testing.T) {
	host, _ := newPipePair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := host.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConn_ReadFromEndpoint_ResponseTimeout(t *testing.T) {
	host, _ := newPipePair(t, WithResponseTimeout(20*time.Millisecond))

	begin := time.Now()
	_, err := host.ReadFromEndpoint(context.Background(), protocol.EndpointPutBytes)
	require.ErrorIs(t, err, ErrResponseTimeout)
	require.WithinDuration(t, begin.Add(20*time.Millisecond), time.Now(), 200*time.Millisecond)
}

func TestConn_PeerCloseFailsPendingRead(t *testing.T) {
	require := require.New(t)

	host, dev := newPipePair(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := host.ReadFromEndpoint(context.Background(), protocol.EndpointPutBytes)
		errCh <- err
	}()

	require.NoError(dev.Close())

	select {
	case err := <-errCh:
		require.ErrorIs(err, ErrClosed)
		require.ErrorIs(err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("pending read was not released")
	}

	require.ErrorIs(host.Err(), ErrClosed)
	require.ErrorIs(host.SendMessage(context.Background(), protocol.ACK(0)), ErrClosed)
}

func TestConn_BufferedFramesSurviveClose(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	host, dev := newPipePair(t)

	require.NoError(dev.SendMessage(ctx, protocol.NACK()))
	require.Eventually(func() bool {
		return host.Metrics().FrameRecvCount.Load() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(host.Close())
	require.NoError(host.Close())

	payload, err := host.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
	require.NoError(err)
	require.Len(payload, 5)

	_, err = host.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
	require.ErrorIs(err, ErrClosed)
}

func TestConn_FullQueueDropsFrames(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	mockLogger := logger.NewMockLogger()
	mockLogger.On("Debug", mock.Anything, mock.Anything).Maybe()
	mockLogger.On("Info", mock.Anything, mock.Anything).Maybe()
	mockLogger.On("Error", mock.Anything, mock.Anything).Maybe()
	mockLogger.On("Warn", "link: endpoint queue full, frame dropped", mock.Anything).Once()

	a, b := net.Pipe()
	host, err := New(a, WithQueueSize(1), WithEndpoints(0x0001, 0x0002), WithLogger(mockLogger))
	require.NoError(err)
	dev, err := New(b, WithLogger(logger.NewSlogWriter(io.Discard, logger.DebugLevel, false)))
	require.NoError(err)
	defer dev.Close()
	defer host.Close()

	require.NoError(dev.SendPacket(ctx, 0x0001, []byte{1}))
	require.NoError(dev.SendPacket(ctx, 0x0001, []byte{2}))
	require.NoError(dev.SendPacket(ctx, 0x0002, []byte{3}))

	payload, err := host.ReadFromEndpoint(ctx, 0x0002)
	require.NoError(err)
	require.Equal([]byte{3}, payload)
	require.Equal(uint64(1), host.Metrics().FrameDropCount.Load())
	mockLogger.AssertCalled(t, "Warn", "link: endpoint queue full, frame dropped", mock.Anything)

	payload, err = host.ReadFromEndpoint(ctx, 0x0001)
	require.NoError(err)
	require.Equal([]byte{1}, payload)
}

func TestConn_UnregisteredEndpointDropped(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	host, dev := newPipePair(t)

	for ep := protocol.Endpoint(1); ep <= 100; ep++ {
		require.NoError(dev.SendPacket(ctx, ep, []byte{byte(ep)}))
	}
	require.NoError(dev.SendMessage(ctx, protocol.ACK(5)))

	payload, err := host.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
	require.NoError(err)
	rsp, err := protocol.ParseResponse(payload)
	require.NoError(err)
	require.Equal(uint32(5), rsp.Cookie)

	require.Equal(uint64(100), host.Metrics().FrameDropCount.Load())
	require.Equal(1, host.queues.Size())

	// a reader registers its endpoint; later frames are delivered
	readCh := make(chan []byte, 1)
	go func() {
		b, _ := host.ReadFromEndpoint(ctx, 0x0042)
		readCh <- b
	}()
	require.Eventually(func() bool {
		_, ok := host.queues.Load(0x0042)
		return ok
	}, time.Second, 5*time.Millisecond)
	require.NoError(dev.SendPacket(ctx, 0x0042, []byte("late")))

	select {
	case b := <-readCh:
		require.Equal("late", string(b))
	case <-time.After(time.Second):
		t.Fatal("registered endpoint did not receive its frame")
	}
}

func TestConn_OversizedFrameClosesLink(t *testing.T) {
	require := require.New(t)

	a, b := net.Pipe()
	host, err := New(a, WithMaxPayloadSize(MinMaxPayloadSize), WithLogger(logger.NewSlogWriter(io.Discard, logger.InfoLevel, false)))
	require.NoError(err)
	defer host.Close()

	go func() {
		_, _ = b.Write([]byte{0xFF, 0xFF, 0xBE, 0xEF})
	}()

	_, err = host.ReadFromEndpoint(context.Background(), protocol.EndpointPutBytes)
	require.ErrorIs(err, ErrClosed)
	require.ErrorIs(err, protocol.ErrFrameTooLarge)
	_ = b.Close()
}

func TestDial(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	host, err := Dial(ctx, ln.Addr().String(), WithDialTimeout(time.Second))
	require.NoError(err)
	defer host.Close()

	devConn := <-accepted
	dev, err := New(devConn)
	require.NoError(err)
	defer dev.Close()

	require.NoError(host.SendMessage(ctx, &protocol.AbortRequest{Cookie: 5}))
	payload, err := dev.ReadFromEndpoint(ctx, protocol.EndpointPutBytes)
	require.NoError(err)
	require.Equal([]byte{0x04, 0, 0, 0, 5}, payload)
}

func TestNew_Options(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil logger", WithLogger(nil)},
		{"negative timeout", WithResponseTimeout(-time.Second)},
		{"zero dial timeout", WithDialTimeout(0)},
		{"small payload", WithMaxPayloadSize(100)},
		{"zero queue", WithQueueSize(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := net.Pipe()
			defer a.Close()
			defer b.Close()

			_, err := New(a, tt.opt)
			require.Error(t, err)
		})
	}

	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilTransport)
}
