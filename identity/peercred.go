package identity

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// PeerUID recovers the kernel-verified UID of the process on the other end
// of a connected UNIX domain socket via SO_PEERCRED. This is the only
// authentication mechanism the broker trusts: the kernel stamps the
// credential at connect() time, so a client cannot forge it by any means
// available in userspace.
func PeerUID(conn *net.UnixConn) (uint32, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("obtain raw connection: %w", err)
	}

	var cred *unix.Ucred
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		cred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return 0, fmt.Errorf("control raw connection: %w", err)
	}
	if sockErr != nil {
		return 0, fmt.Errorf("getsockopt SO_PEERCRED: %w", sockErr)
	}

	return cred.Uid, nil
}
