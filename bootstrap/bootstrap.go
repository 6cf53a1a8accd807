// Package bootstrap implements the client-side connection handoff: locate a
// running server (or start a short-lived one from a readable server
// config), obtain a connected socket to it, and drop any elevated
// privileges before returning control to the CLI front end. This is the one
// hard security boundary on the client side: everything downstream of
// Connect runs as the caller's real UID/GID, never the process's effective
// one.
package bootstrap

import (
	"fmt"
	"net"
	"os"

	"mysqladm/config"

	"github.com/gravitational/trace"
	"golang.org/x/sys/unix"
)

// Connect resolves a connection to the server following the three
// resolution paths, in order: an explicit socket path, an explicit config
// path (forking a short-lived server from it), or the default socket path
// followed by the default config path. Exactly one of socketPath and
// configPath may be non-empty; both set is a usage error.
func Connect(socketPath, configPath string) (net.Conn, error) {
	if socketPath != "" && configPath != "" {
		return nil, trace.BadParameter("cannot provide both a socket path and a config path")
	}

	conn, err := resolve(socketPath, configPath)
	if err != nil {
		return nil, err
	}

	if err := DropPrivileges(); err != nil {
		conn.Close()
		return nil, trace.Wrap(err, "drop privileges after connecting")
	}

	return conn, nil
}

func resolve(socketPath, configPath string) (net.Conn, error) {
	if socketPath != "" {
		return dialSocket(socketPath)
	}
	if configPath != "" {
		if err := checkReadable(configPath); err != nil {
			return nil, err
		}
		return spawnServerFromConfig(configPath)
	}

	if _, err := os.Stat(config.DefaultSocketPath); err == nil {
		return dialSocket(config.DefaultSocketPath)
	}
	if err := checkReadable(config.DefaultConfigPath); err == nil {
		return spawnServerFromConfig(config.DefaultConfigPath)
	}

	return nil, trace.NotFound("no socket path or config path provided, and no default socket or config found")
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return trace.Wrap(err, "config %q not found or not readable", path)
	}
	return f.Close()
}

func dialSocket(path string) (net.Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, trace.NotFound("socket %q not found", path)
		}
		if os.IsPermission(err) {
			return nil, trace.AccessDenied("permission denied connecting to socket %q", path)
		}
		return nil, trace.Wrap(err, "connect to socket %q", path)
	}
	return conn, nil
}

// DropPrivileges sets the process's effective UID and GID to its real
// UID/GID. On a binary that is not setuid/setgid this is a no-op beyond the
// syscalls themselves; on one that is, it is the only thing standing
// between a caller and a session that runs with more privilege than the
// caller invoking it has.
func DropPrivileges() error {
	realUID := unix.Getuid()
	realGID := unix.Getgid()

	if err := unix.Setgid(realGID); err != nil {
		return fmt.Errorf("drop to real gid %d: %w", realGID, err)
	}
	if err := unix.Setuid(realUID); err != nil {
		return fmt.Errorf("drop to real uid %d: %w", realUID, err)
	}

	if unix.Getuid() != realUID || unix.Getgid() != realGID {
		return fmt.Errorf("privilege drop did not take effect")
	}
	return nil
}
