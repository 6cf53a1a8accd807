package config

import (
	"context"
	"fmt"
	"time"

	"mysqladm/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ConnectDB opens the process-wide administrative connection pool described
// by cfg. main calls it exactly once per process at startup, in both the
// supervisor and the single-session server path; the resulting pool is then
// shared by every session handler (see §5 of the
// broker's concurrency model: the pool is the only process-wide mutable
// state besides the in-flight connection counter).
func ConnectDB(cfg MySQLConfig) (*gorm.DB, error) {
	logger.Infof("connecting to database %s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	type result struct {
		db  *gorm.DB
		err error
	}
	done := make(chan result, 1)
	go func() {
		db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
		done <- result{db, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			logger.Errorf("database connection failed: %v", r.err)
			return nil, r.err
		}
		sqlDB, err := r.db.DB()
		if err != nil {
			return nil, err
		}
		// Short-lived per-session connections: each session holds one
		// connection for the lifetime of its turn loop, never longer.
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		logger.Infof("connected to database %s", cfg.Database)
		return r.db, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("timed out after %s acquiring initial database connection", cfg.Timeout)
	}
}
