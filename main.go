// Command mysqladmd is the privileged broker server: it owns the
// administrative MySQL/MariaDB connection pool and the control socket, and
// serves one validated, privilege-separated session per accepted
// connection. See bootstrap/reexec.go for the other half of this binary's
// job: when re-exec'd by a client's bootstrap with
// MYSQLADM_SINGLE_SESSION_CONFIG set, it instead serves exactly one
// inherited connection and exits.
package main

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"mysqladm/bootstrap"
	"mysqladm/config"
	"mysqladm/identity"
	"mysqladm/pkg/logger"
	"mysqladm/session"
	"mysqladm/supervisor"
)

func main() {
	if configPath, ok := bootstrap.SingleSessionConfigPath(); ok {
		runSingleSession(configPath)
		return
	}
	runSupervisor()
}

// runSingleSession serves exactly one inherited connection and exits,
// matching the client bootstrap's "fork a short-lived server, the parent
// gets the other end of the pair" contract for the config-path resolution
// path.
func runSingleSession(configPath string) {
	cfg, err := config.LoadServerConfigFromFile(configPath)
	if err != nil {
		logger.Fatalf("load server config %q: %v", configPath, err)
	}
	startLogger(cfg)

	denylist, err := loadDenylist(cfg)
	if err != nil {
		logger.Fatalf("load group denylist: %v", err)
	}

	db, err := config.ConnectDB(cfg.MySQL)
	if err != nil {
		logger.Fatalf("connect to database: %v", err)
	}

	conn, err := bootstrap.SingleSessionConn()
	if err != nil {
		logger.Fatalf("recover inherited session socket: %v", err)
	}

	if err := session.Handle(conn, db, denylist, cfg.MySQL.Timeout); err != nil {
		logger.Errorf("single session ended with error: %v", err)
		os.Exit(1)
	}
}

// runSupervisor is the ordinary long-running daemon entrypoint: load
// configuration, connect the shared pool, and accept connections until
// terminated.
func runSupervisor() {
	if n := runtime.NumCPU(); n < 4 {
		runtime.GOMAXPROCS(4)
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Fatalf("load server config: %v", err)
	}
	startLogger(cfg)

	denylist, err := loadDenylist(cfg)
	if err != nil {
		logger.Fatalf("load group denylist: %v", err)
	}

	db, err := config.ConnectDB(cfg.MySQL)
	if err != nil {
		logger.Fatalf("connect to database: %v", err)
	}

	sup, err := supervisor.New(cfg, db, denylist)
	if err != nil {
		logger.Fatalf("start supervisor: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Infof("received %s, closing listener", sig)
		if err := sup.Close(); err != nil {
			logger.Warnf("error closing listener: %v", err)
		}
	}()

	logger.Infof("mysqladmd ready")
	if err := sup.Run(); err != nil {
		logger.Fatalf("supervisor exited: %v", err)
	}
}

func startLogger(cfg config.ServerConfig) {
	logger.InitWithConfig(cfg.LogFile, logger.ParseLogLevel(cfg.LogLevel),
		cfg.LogMaxSize, cfg.LogMaxBackups, cfg.LogMaxAge, cfg.LogCompress)
}

func loadDenylist(cfg config.ServerConfig) (identity.Denylist, error) {
	if cfg.GroupDenylistPath == "" {
		return identity.Denylist{}, nil
	}
	return identity.LoadDenylistFile(cfg.GroupDenylistPath)
}
