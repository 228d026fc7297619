package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// AppScopeBit is set in the kind byte of an init request addressed to an installed
// application rather than a system storage bank.
const AppScopeBit byte = 0x80

// Command is the first byte of every PutBytes request.
type Command uint8

// PutBytes commands.
const (
	CmdInit    Command = 0x01
	CmdPut     Command = 0x02
	CmdCommit  Command = 0x03
	CmdAbort   Command = 0x04
	CmdInstall Command = 0x05
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdInit:
		return "init"
	case CmdPut:
		return "put"
	case CmdCommit:
		return "commit"
	case CmdAbort:
		return "abort"
	case CmdInstall:
		return "install"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint8(c))
	}
}

// Request is a PutBytes request sent by the host.
type Request interface {
	Message
	// Command returns the command byte of the request.
	Command() Command
}

var (
	_ Request = (*InitRequest)(nil)
	_ Request = (*AppInitRequest)(nil)
	_ Request = (*PutRequest)(nil)
	_ Request = (*CommitRequest)(nil)
	_ Request = (*AbortRequest)(nil)
	_ Request = (*InstallRequest)(nil)
)

// InitRequest opens a transfer into a system storage bank.
type InitRequest struct {
	ObjectSize uint32
	ObjectType byte
	Bank       uint8
	Filename   string
}

func (*InitRequest) Endpoint() Endpoint { return EndpointPutBytes }
func (*InitRequest) Command() Command   { return CmdInit }

func (r *InitRequest) MarshalBinary() ([]byte, error) {
	if bytes.IndexByte([]byte(r.Filename), 0) >= 0 {
		return nil, ErrInvalidFilename
	}

	buf := make([]byte, 0, 8+len(r.Filename))
	buf = append(buf, byte(CmdInit))
	buf = binary.BigEndian.AppendUint32(buf, r.ObjectSize)
	buf = append(buf, r.ObjectType, r.Bank)
	buf = append(buf, r.Filename...)

	return append(buf, 0), nil
}

// AppInitRequest opens a transfer addressed to an installed application.
// ObjectType must carry AppScopeBit.
type AppInitRequest struct {
	ObjectSize   uint32
	ObjectType   byte
	AppInstallID uint32
}

func (*AppInitRequest) Endpoint() Endpoint { return EndpointPutBytes }
func (*AppInitRequest) Command() Command   { return CmdInit }

func (r *AppInitRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 10)
	buf = append(buf, byte(CmdInit))
	buf = binary.BigEndian.AppendUint32(buf, r.ObjectSize)
	buf = append(buf, r.ObjectType)

	return binary.BigEndian.AppendUint32(buf, r.AppInstallID), nil
}

// PutRequest carries one chunk of the object.
type PutRequest struct {
	Cookie uint32
	Data   []byte
}

func (*PutRequest) Endpoint() Endpoint { return EndpointPutBytes }
func (*PutRequest) Command() Command   { return CmdPut }

func (r *PutRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 9+len(r.Data))
	buf = append(buf, byte(CmdPut))
	buf = binary.BigEndian.AppendUint32(buf, r.Cookie)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Data))) //nolint:gosec // bounded by frame size

	return append(buf, r.Data...), nil
}

// CommitRequest closes the data phase and carries the checksum of the whole object.
type CommitRequest struct {
	Cookie    uint32
	ObjectCRC uint32
}

func (*CommitRequest) Endpoint() Endpoint { return EndpointPutBytes }
func (*CommitRequest) Command() Command   { return CmdCommit }

func (r *CommitRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 9)
	buf = append(buf, byte(CmdCommit))
	buf = binary.BigEndian.AppendUint32(buf, r.Cookie)

	return binary.BigEndian.AppendUint32(buf, r.ObjectCRC), nil
}

// AbortRequest discards a pending transfer on the device.
type AbortRequest struct {
	Cookie uint32
}

func (*AbortRequest) Endpoint() Endpoint { return EndpointPutBytes }
func (*AbortRequest) Command() Command   { return CmdAbort }

func (r *AbortRequest) MarshalBinary() ([]byte, error) {
	return cookieOnly(CmdAbort, r.Cookie), nil
}

// InstallRequest asks the device to install a committed object.
type InstallRequest struct {
	Cookie uint32
}

func (*InstallRequest) Endpoint() Endpoint { return EndpointPutBytes }
func (*InstallRequest) Command() Command   { return CmdInstall }

func (r *InstallRequest) MarshalBinary() ([]byte, error) {
	return cookieOnly(CmdInstall, r.Cookie), nil
}

func cookieOnly(cmd Command, cookie uint32) []byte {
	buf := make([]byte, 0, 5)
	buf = append(buf, byte(cmd))

	return binary.BigEndian.AppendUint32(buf, cookie)
}

// ParseRequest decodes a PutBytes request body.
func ParseRequest(b []byte) (Request, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty request", ErrShortMessage)
	}

	cmd, body := Command(b[0]), b[1:]
	switch cmd {
	case CmdInit:
		return parseInit(body)
	case CmdPut:
		if len(body) < 8 {
			return nil, fmt.Errorf("%w: put needs 8 header bytes, got %d", ErrShortMessage, len(body))
		}
		n := binary.BigEndian.Uint32(body[4:8])
		data := body[8:]
		if uint64(n) != uint64(len(data)) {
			return nil, fmt.Errorf("%w: declared %d, got %d", ErrLengthMismatch, n, len(data))
		}
		return &PutRequest{
			Cookie: binary.BigEndian.Uint32(body[0:4]),
			Data:   bytes.Clone(data),
		}, nil
	case CmdCommit:
		if err := checkSize(cmd, body, 8); err != nil {
			return nil, err
		}
		return &CommitRequest{
			Cookie:    binary.BigEndian.Uint32(body[0:4]),
			ObjectCRC: binary.BigEndian.Uint32(body[4:8]),
		}, nil
	case CmdAbort:
		if err := checkSize(cmd, body, 4); err != nil {
			return nil, err
		}
		return &AbortRequest{Cookie: binary.BigEndian.Uint32(body)}, nil
	case CmdInstall:
		if err := checkSize(cmd, body, 4); err != nil {
			return nil, err
		}
		return &InstallRequest{Cookie: binary.BigEndian.Uint32(body)}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, uint8(cmd))
	}
}

func parseInit(body []byte) (Request, error) {
	if len(body) < 5 {
		return nil, fmt.Errorf("%w: init needs 5 bytes, got %d", ErrShortMessage, len(body))
	}

	size := binary.BigEndian.Uint32(body[0:4])
	objType := body[4]
	rest := body[5:]

	if objType&AppScopeBit != 0 {
		if err := checkSize(CmdInit, rest, 4); err != nil {
			return nil, err
		}
		return &AppInitRequest{
			ObjectSize:   size,
			ObjectType:   objType,
			AppInstallID: binary.BigEndian.Uint32(rest),
		}, nil
	}

	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: init needs bank and filename", ErrShortMessage)
	}

	nul := bytes.IndexByte(rest[1:], 0)
	if nul < 0 {
		return nil, ErrMissingTerminator
	}
	if 1+nul+1 != len(rest) {
		return nil, fmt.Errorf("%w: %d bytes after filename", ErrTrailingBytes, len(rest)-nul-2)
	}

	return &InitRequest{
		ObjectSize: size,
		ObjectType: objType,
		Bank:       rest[0],
		Filename:   string(rest[1 : 1+nul]),
	}, nil
}

func checkSize(cmd Command, body []byte, want int) error {
	switch {
	case len(body) < want:
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortMessage, cmd, want, len(body))
	case len(body) > want:
		return fmt.Errorf("%w: %s has %d extra", ErrTrailingBytes, cmd, len(body)-want)
	default:
		return nil
	}
}

// Result is the outcome byte of a PutBytes response.
type Result uint8

const (
	ResultACK  Result = 0x01
	ResultNACK Result = 0x02
)

// String returns "ACK", "NACK" or the raw value.
func (r Result) String() string {
	switch r {
	case ResultACK:
		return "ACK"
	case ResultNACK:
		return "NACK"
	default:
		return fmt.Sprintf("Result(0x%02X)", uint8(r))
	}
}

// responseSize is the fixed size of a response body.
const responseSize = 5

// Response is the device's answer to a PutBytes request.
//
// Cookie is meaningful only in the ACK to an init request.
type Response struct {
	Result Result
	Cookie uint32
}

var _ Message = (*Response)(nil)

// ACK returns an acknowledgment carrying cookie.
func ACK(cookie uint32) *Response { return &Response{Result: ResultACK, Cookie: cookie} }

// NACK returns a negative acknowledgment.
func NACK() *Response { return &Response{Result: ResultNACK} }

func (*Response) Endpoint() Endpoint { return EndpointPutBytes }

// IsACK reports whether the device accepted the request.
func (r *Response) IsACK() bool { return r.Result == ResultACK }

func (r *Response) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, responseSize)
	buf = append(buf, byte(r.Result))

	return binary.BigEndian.AppendUint32(buf, r.Cookie), nil
}

// ParseResponse decodes a PutBytes response body.
func ParseResponse(b []byte) (*Response, error) {
	if len(b) < responseSize {
		return nil, fmt.Errorf("%w: response needs %d bytes, got %d", ErrShortMessage, responseSize, len(b))
	}
	if len(b) > responseSize {
		return nil, fmt.Errorf("%w: response has %d extra", ErrTrailingBytes, len(b)-responseSize)
	}

	res := Result(b[0])
	if res != ResultACK && res != ResultNACK {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownResult, b[0])
	}

	return &Response{Result: res, Cookie: binary.BigEndian.Uint32(b[1:5])}, nil
}
