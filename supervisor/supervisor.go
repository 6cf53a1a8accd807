// Package supervisor owns the server's listening socket, the shared
// database connection pool, and the per-connection session goroutines, and
// reports liveness to systemd when running under socket/service activation.
package supervisor

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"mysqladm/config"
	"mysqladm/identity"
	"mysqladm/pkg/logger"
	"mysqladm/session"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
	"gorm.io/gorm"
)

// Supervisor owns the listening socket and dispatches one session goroutine
// per accepted connection against a shared database pool.
type Supervisor struct {
	cfg        config.ServerConfig
	db         *gorm.DB
	denylist   identity.Denylist
	listener   *net.UnixListener
	activeConn int64
}

// New builds a Supervisor bound to either the configured socket path or, if
// cfg.SocketPath is empty, the listener socket-activation handed it on file
// descriptor 3.
func New(cfg config.ServerConfig, db *gorm.DB, denylist identity.Denylist) (*Supervisor, error) {
	listener, err := openListener(cfg)
	if err != nil {
		return nil, fmt.Errorf("open listener: %w", err)
	}

	return &Supervisor{cfg: cfg, db: db, denylist: denylist, listener: listener}, nil
}

func openListener(cfg config.ServerConfig) (*net.UnixListener, error) {
	if cfg.SocketPath == "" {
		return listenerFromSystemd()
	}
	return listenerFromSocketPath(cfg.SocketPath)
}

func listenerFromSocketPath(path string) (*net.UnixListener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket %q: %w", path, err)
	}

	logger.Infof("listening on socket %s", path)
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("bind socket %q: %w", path, err)
	}
	return l, nil
}

// listenerFromSystemd recovers the listening socket systemd passed on file
// descriptor 3 under socket activation, matching the original's
// sd_notify::listen_fds() handoff.
func listenerFromSystemd() (*net.UnixListener, error) {
	listeners, err := activation.Listeners()
	if err != nil {
		return nil, fmt.Errorf("get file descriptors from systemd: %w", err)
	}
	if len(listeners) == 0 {
		return nil, fmt.Errorf("no file descriptors received from systemd")
	}

	l, ok := listeners[0].(*net.UnixListener)
	if !ok {
		return nil, fmt.Errorf("file descriptor from systemd is not a UNIX socket listener")
	}

	logger.Debugf("received listener from systemd on file descriptor 3")
	return l, nil
}

// Run accepts connections until the listener is closed, handling each on
// its own goroutine. It blocks until Close is called from another
// goroutine (ordinarily in response to a termination signal).
func (s *Supervisor) Run() error {
	if s.cfg.SystemdMode {
		s.spawnWatchdog()
		s.spawnStatusNotifier()
		if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			logger.Warnf("failed to notify systemd of readiness: %v", err)
		}
	}

	for {
		conn, err := s.listener.AcceptUnix()
		if err != nil {
			if isClosedListenerError(err) {
				return nil
			}
			return fmt.Errorf("accept connection: %w", err)
		}

		atomic.AddInt64(&s.activeConn, 1)
		go func() {
			defer atomic.AddInt64(&s.activeConn, -1)
			if err := session.Handle(conn, s.db, s.denylist, s.cfg.MySQL.Timeout); err != nil {
				logger.Errorf("session ended with error: %v", err)
			}
		}()
	}
}

// Close stops accepting new connections. In-flight sessions are not
// interrupted.
func (s *Supervisor) Close() error {
	return s.listener.Close()
}

func isClosedListenerError(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// spawnWatchdog pings systemd's watchdog at half its configured timeout,
// the same cadence the original's spawn_watchdog_task uses.
func (s *Supervisor) spawnWatchdog() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		logger.Debugf("systemd watchdog not enabled, skipping watchdog goroutine")
		return
	}

	logger.Debugf("systemd watchdog enabled with %s interval", interval)
	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				logger.Warnf("failed to notify systemd watchdog: %v", err)
			}
		}
	}()
}

// spawnStatusNotifier periodically reports the number of active sessions to
// systemd's status line, mirroring the original's connection-count status
// notifier.
func (s *Supervisor) spawnStatusNotifier() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			count := atomic.LoadInt64(&s.activeConn)
			var status string
			if count > 0 {
				status = fmt.Sprintf("STATUS=Handling %d connections", count)
			} else {
				status = "STATUS=Waiting for connections"
			}
			daemon.SdNotify(false, status)
		}
	}()
}
