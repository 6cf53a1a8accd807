package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConn(&buf)

	want := CreateDatabasesRequest{Names: []string{"alice_db1", "alice_db2"}}
	require.NoError(t, conn.WriteRequest(want))

	got, err := conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestConnResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConn(&buf)

	want := ModifyPrivilegesResponse{Results: map[string]Failure{
		"alice_db1/alice_user1": {},
		"alice_db1/alice_user2": {Kind: "does_not_exist", Message: "row does not exist"},
	}}
	require.NoError(t, conn.WriteResponse(want))

	got, err := conn.ReadResponse()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestConnPreservesRequestOrdering(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConn(&buf)

	require.NoError(t, conn.WriteRequest(ListValidNamePrefixesRequest{}))
	require.NoError(t, conn.WriteRequest(ExitRequest{}))

	first, err := conn.ReadRequest()
	require.NoError(t, err)
	require.IsType(t, ListValidNamePrefixesRequest{}, first)

	second, err := conn.ReadRequest()
	require.NoError(t, err)
	require.IsType(t, ExitRequest{}, second)
}

func TestReadFrameRejectsOversizedDeclaredLength(t *testing.T) {
	var prefix [4]byte
	// Declare a frame far larger than MaxFrameSize; no payload follows since
	// the size check must happen before any payload byte is read.
	oversized := uint32(MaxFrameSize) + 1
	prefix[0] = byte(oversized >> 24)
	prefix[1] = byte(oversized >> 16)
	prefix[2] = byte(oversized >> 8)
	prefix[3] = byte(oversized)

	buf := bytes.NewBuffer(prefix[:])
	var env requestEnvelope
	err := readFrame(buf, &env)

	require.Error(t, err)
	var tooLarge *FrameTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	require.Equal(t, oversized, tooLarge.Declared)
}

func TestReadFrameErrorsOnTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConn(&buf)
	require.NoError(t, conn.WriteRequest(ExitRequest{}))

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-1])
	_, err := NewConn(truncated).ReadRequest()
	require.Error(t, err)
}
