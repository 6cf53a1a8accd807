package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
)

// MaxFrameSize is the largest payload a single frame may declare. It is
// checked against the length prefix alone, before any payload byte is
// read, so a misbehaving peer cannot force an unbounded allocation.
const MaxFrameSize = 4 * 1024 * 1024

func init() {
	gob.Register(CreateDatabasesRequest{})
	gob.Register(DropDatabasesRequest{})
	gob.Register(ListDatabasesRequest{})
	gob.Register(ListPrivilegesRequest{})
	gob.Register(ModifyPrivilegesRequest{})
	gob.Register(CreateUsersRequest{})
	gob.Register(DropUsersRequest{})
	gob.Register(PasswdUserRequest{})
	gob.Register(ListUsersRequest{})
	gob.Register(LockUsersRequest{})
	gob.Register(UnlockUsersRequest{})
	gob.Register(CheckAuthorizationRequest{})
	gob.Register(ListValidNamePrefixesRequest{})
	gob.Register(CompleteDatabaseNameRequest{})
	gob.Register(CompleteUserNameRequest{})
	gob.Register(ExitRequest{})

	gob.Register(CreateDatabasesResponse{})
	gob.Register(DropDatabasesResponse{})
	gob.Register(ListDatabasesResponse{})
	gob.Register(ListAllDatabasesResponse{})
	gob.Register(ListPrivilegesResponse{})
	gob.Register(ListAllPrivilegesResponse{})
	gob.Register(ModifyPrivilegesResponse{})
	gob.Register(CreateUsersResponse{})
	gob.Register(DropUsersResponse{})
	gob.Register(PasswdUserResponse{})
	gob.Register(ListUsersResponse{})
	gob.Register(ListAllUsersResponse{})
	gob.Register(LockUsersResponse{})
	gob.Register(UnlockUsersResponse{})
	gob.Register(CheckAuthorizationResponse{})
	gob.Register(ListValidNamePrefixesResponse{})
	gob.Register(CompleteDatabaseNameResponse{})
	gob.Register(CompleteUserNameResponse{})
	gob.Register(ReadyResponse{})
	gob.Register(ErrorResponse{})
}

// FrameTooLargeError is returned when a peer declares a frame length over
// MaxFrameSize.
type FrameTooLargeError struct{ Declared uint32 }

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("protocol: frame of %d bytes exceeds the %d byte cap", e.Declared, MaxFrameSize)
}

// requestEnvelope and responseEnvelope give Request/Response a field whose
// static type is the interface itself, which is what makes gob emit and
// consume its named-concrete-type wire format; encoding a bare interface{}
// parameter directly loses that information, since reflection on an "any"
// argument only ever sees the dynamic (concrete) type.
type requestEnvelope struct{ R Request }
type responseEnvelope struct{ R Response }

// writeFrame gob-encodes envelope (a requestEnvelope or responseEnvelope)
// and writes it as a single length-prefixed frame.
func writeFrame(w io.Writer, envelope any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope); err != nil {
		return fmt.Errorf("protocol: encode frame: %w", err)
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(buf.Len()))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("protocol: write frame length: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("protocol: write frame payload: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed frame and gob-decodes it into dest
// (a pointer to a requestEnvelope or responseEnvelope).
func readFrame(r io.Reader, dest any) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxFrameSize {
		return &FrameTooLargeError{Declared: size}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("protocol: read frame payload: %w", err)
	}

	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(dest); err != nil {
		return fmt.Errorf("protocol: decode frame: %w", err)
	}
	return nil
}

// Conn wraps a byte stream (ordinarily a *net.UnixConn) with the framed
// Request/Response protocol. A single Conn is used exclusively from
// either the server or the client side of a connection, never both.
type Conn struct {
	rw io.ReadWriter
}

// NewConn wraps rw for framed protocol use.
func NewConn(rw io.ReadWriter) *Conn { return &Conn{rw: rw} }

// WriteRequest sends a single Request frame.
func (c *Conn) WriteRequest(req Request) error {
	return writeFrame(c.rw, requestEnvelope{R: req})
}

// WriteResponse sends a single Response frame.
func (c *Conn) WriteResponse(resp Response) error {
	return writeFrame(c.rw, responseEnvelope{R: resp})
}

// ReadRequest reads and decodes a single Request frame.
func (c *Conn) ReadRequest() (Request, error) {
	var env requestEnvelope
	if err := readFrame(c.rw, &env); err != nil {
		return nil, err
	}
	return env.R, nil
}

// ReadResponse reads and decodes a single Response frame.
func (c *Conn) ReadResponse() (Response, error) {
	var env responseEnvelope
	if err := readFrame(c.rw, &env); err != nil {
		return nil, err
	}
	return env.R, nil
}
