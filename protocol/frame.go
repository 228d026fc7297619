package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Endpoint identifies the service a frame belongs to.
type Endpoint uint16

// EndpointPutBytes is the endpoint carrying PutBytes requests and responses.
const EndpointPutBytes Endpoint = 0xBEEF

// String returns the endpoint in hex.
func (e Endpoint) String() string {
	return fmt.Sprintf("0x%04X", uint16(e))
}

// FrameHeaderSize is the size of the length and endpoint fields.
const FrameHeaderSize = 4

// MaxFramePayload is the largest payload the 16-bit length field can describe.
const MaxFramePayload = math.MaxUint16

// Message is anything that can be sent as the payload of a frame.
type Message interface {
	// Endpoint returns the endpoint the message is addressed to.
	Endpoint() Endpoint
	// MarshalBinary encodes the message body, without the frame header.
	MarshalBinary() ([]byte, error)
}

// Frame is one packet on the link.
type Frame struct {
	Endpoint Endpoint
	Payload  []byte
}

// NewFrame encodes msg into a frame.
func NewFrame(msg Message) (*Frame, error) {
	payload, err := msg.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return &Frame{Endpoint: msg.Endpoint(), Payload: payload}, nil
}

// MarshalBinary returns the wire form: [Length(2)][Endpoint(2)][Payload].
func (f *Frame) MarshalBinary() ([]byte, error) {
	if len(f.Payload) > MaxFramePayload {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrFrameTooLarge, len(f.Payload), MaxFramePayload)
	}

	buf := make([]byte, FrameHeaderSize, FrameHeaderSize+len(f.Payload))
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(f.Payload))) //nolint:gosec // checked above
	binary.BigEndian.PutUint16(buf[2:4], uint16(f.Endpoint))

	return append(buf, f.Payload...), nil
}

// WriteFrame writes f to w in a single Write call.
func WriteFrame(w io.Writer, f *Frame) error {
	buf, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = w.Write(buf)

	return err
}

// ReadFrame reads one frame from r.
//
// maxPayload bounds the accepted payload length; values <= 0 or above
// MaxFramePayload mean MaxFramePayload. A clean end of stream before the first
// header byte returns io.EOF; a stream that ends mid-frame returns ErrShortFrame.
func ReadFrame(r io.Reader, maxPayload int) (*Frame, error) {
	if maxPayload <= 0 || maxPayload > MaxFramePayload {
		maxPayload = MaxFramePayload
	}

	var hdr [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: header", ErrShortFrame)
		}
		return nil, err
	}

	length := int(binary.BigEndian.Uint16(hdr[0:2]))
	if length > maxPayload {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrFrameTooLarge, length, maxPayload)
	}

	f := &Frame{
		Endpoint: Endpoint(binary.BigEndian.Uint16(hdr[2:4])),
		Payload:  make([]byte, length),
	}

	if _, err := io.ReadFull(r, f.Payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: want %d payload bytes", ErrShortFrame, length)
		}
		return nil, err
	}

	return f, nil
}
