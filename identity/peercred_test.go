package identity

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// A process connecting to its own listening UNIX socket is its own peer, so
// PeerUID must recover this process's real UID.
func TestPeerUIDRecoversOwnUID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peercred.sock")

	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	require.NoError(t, err)
	defer l.Close()

	accepted := make(chan *net.UnixConn, 1)
	go func() {
		conn, err := l.AcceptUnix()
		require.NoError(t, err)
		accepted <- conn
	}()

	client, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	defer server.Close()

	uid, err := PeerUID(server)
	require.NoError(t, err)
	require.Equal(t, uint32(os.Getuid()), uid)
}
