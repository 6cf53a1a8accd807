package bootstrap

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"

	"github.com/gravitational/trace"
)

// singleSessionConfigEnv marks a re-exec'd process as the short-lived
// single-session server path 2 of the resolution order spawns: the sentinel
// environment variable takes the place of the distinguished argv[0] a
// forked-and-execed process would normally use. singleSessionFD is the file
// descriptor the inherited end of the socketpair arrives on.
// main.go checks for singleSessionConfigEnv before doing anything else.
const (
	singleSessionConfigEnv = "MYSQLADM_SINGLE_SESSION_CONFIG"
	singleSessionFD        = 3
)

// spawnServerFromConfig re-execs the current binary as a single-session
// server reading configPath, handing it one end of a freshly created
// AF_UNIX socketpair on file descriptor 3, and returns the other end to the
// caller. Go offers no safe fork-without-exec (the runtime's scheduler and
// garbage collector assume the full process survives the fork), so this
// re-exec stands in for the fork the original client bootstrap performs.
func spawnServerFromConfig(configPath string) (net.Conn, error) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, trace.Wrap(err, "create socketpair")
	}
	serverFile := os.NewFile(uintptr(fds[0]), "mysqladm-server-socket")
	clientFile := os.NewFile(uintptr(fds[1]), "mysqladm-client-socket")
	defer serverFile.Close()

	self, err := os.Executable()
	if err != nil {
		clientFile.Close()
		return nil, trace.Wrap(err, "resolve own executable path")
	}

	cmd := exec.Command(self)
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s", singleSessionConfigEnv, configPath))
	cmd.ExtraFiles = []*os.File{serverFile}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		clientFile.Close()
		return nil, trace.Wrap(err, "start single-session server")
	}
	// The child owns its copy of serverFile now; releasing the parent's
	// zombie below does not touch the underlying connection.
	go cmd.Wait()

	conn, err := net.FileConn(clientFile)
	if err != nil {
		clientFile.Close()
		return nil, trace.Wrap(err, "wrap client end of socketpair")
	}
	clientFile.Close()
	return conn, nil
}

// SingleSessionConfigPath reports the config path a re-exec'd process
// should read, and whether this process was invoked as a single-session
// server at all. main checks this before its ordinary supervisor startup.
func SingleSessionConfigPath() (path string, ok bool) {
	path = os.Getenv(singleSessionConfigEnv)
	return path, path != ""
}

// SingleSessionConn wraps the inherited file descriptor 3 as the UNIX
// connection the single-session server should serve.
func SingleSessionConn() (*net.UnixConn, error) {
	f := os.NewFile(uintptr(singleSessionFD), "mysqladm-inherited-socket")
	conn, err := net.FileConn(f)
	f.Close()
	if err != nil {
		return nil, trace.Wrap(err, "wrap inherited file descriptor %d", singleSessionFD)
	}
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return nil, trace.BadParameter("inherited file descriptor %d is not a UNIX socket", singleSessionFD)
	}
	return unixConn, nil
}
