package link

import "sync/atomic"

// Metrics contains atomic counters for a link.
// The fields can back a prometheus CounterFunc.
type Metrics struct {
	// FrameSendCount is the number of frames written.
	FrameSendCount atomic.Uint64
	// FrameRecvCount is the number of frames decoded by the reader.
	FrameRecvCount atomic.Uint64
	// FrameDropCount is the number of frames dropped because their endpoint was
	// not registered or its queue was full.
	FrameDropCount atomic.Uint64
	// ByteSendCount is the number of payload bytes written.
	ByteSendCount atomic.Uint64
	// ByteRecvCount is the number of payload bytes received.
	ByteRecvCount atomic.Uint64
	// SendErrCount is the number of failed frame writes.
	SendErrCount atomic.Uint64
}

func (m *Metrics) incFrameSend(payloadLen int) {
	m.FrameSendCount.Add(1)
	m.ByteSendCount.Add(uint64(payloadLen)) //nolint:gosec // non-negative
}

func (m *Metrics) incFrameRecv(payloadLen int) {
	m.FrameRecvCount.Add(1)
	m.ByteRecvCount.Add(uint64(payloadLen)) //nolint:gosec // non-negative
}

func (m *Metrics) incFrameDrop() {
	m.FrameDropCount.Add(1)
}

func (m *Metrics) incSendErr() {
	m.SendErrCount.Add(1)
}
