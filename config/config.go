// Package config loads the broker's server- and client-side configuration
// from environment variables (with optional .env support) and exposes the
// connection parameters the rest of the process needs: where the control
// socket lives, how to reach the database, and where the group denylist is.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

const (
	// DefaultSocketPath is tried by the client bootstrap when no socket path
	// is given explicitly and no config-driven fork is requested.
	DefaultSocketPath = "/run/mysqladm/mysqladm.sock"
	// DefaultConfigPath is tried after DefaultSocketPath by the client
	// bootstrap's fallback path.
	DefaultConfigPath = "/etc/mysqladm/server.env"
)

// MySQLConfig holds everything needed to open the administrative connection
// pool to the MySQL/MariaDB instance the broker manages.
type MySQLConfig struct {
	Host     string `validate:"required,hostname_rfc1123|ip"`
	Port     int    `validate:"required,min=1,max=65535"`
	User     string `validate:"required"`
	Password string
	Database string `validate:"required"`
	// Timeout bounds how long the pool waits to acquire a connection.
	Timeout time.Duration `validate:"required"`
}

// DSN renders the go-sql-driver/mysql data source name for this config.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// ServerConfig is the full configuration of the privileged server process
// (mysqladmd): where to listen, which database to administer, where the
// group denylist lives, how to log, and whether to participate in systemd's
// watchdog/status protocol.
type ServerConfig struct {
	MySQL MySQLConfig `validate:"required"`

	// SocketPath is the control socket to listen on. Empty means "use
	// systemd socket activation (file descriptor 3)" instead.
	SocketPath string

	// GroupDenylistPath points at the gid:/group: directive file loaded at
	// startup (see identity.LoadDenylistFile). Empty means no denylist.
	GroupDenylistPath string

	// SystemdMode enables watchdog pings and status notifications via
	// sd_notify; it is independent of socket activation.
	SystemdMode bool

	LogLevel      string `validate:"required,oneof=DEBUG INFO WARN ERROR FATAL"`
	LogFile       string `validate:"required"`
	LogMaxSize    int    `validate:"min=1"` // MB
	LogMaxBackups int    `validate:"min=0"`
	LogMaxAge     int    `validate:"min=0"` // days
	LogCompress   bool
}

// ClientConfig is the subset of configuration the client-side bootstrap
// needs: where an existing socket might be, and where a server config lives
// that bootstrap can fork a short-lived server from.
type ClientConfig struct {
	SocketPath string
	ConfigPath string
}

// LoadServerConfig loads the server configuration from a .env file (if
// present) and the environment, falling back to conservative defaults.
func LoadServerConfig() (ServerConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] .env file not found or cannot be loaded: %v", err)
	} else {
		log.Printf("[INFO] .env file loaded successfully")
	}
	return buildServerConfig()
}

// LoadServerConfigFromFile loads the server configuration from exactly the
// given .env-format file, used by the single-session server a client
// bootstrap's config-path resolution path re-execs.
func LoadServerConfigFromFile(path string) (ServerConfig, error) {
	if err := godotenv.Overload(path); err != nil {
		return ServerConfig{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return buildServerConfig()
}

func buildServerConfig() (ServerConfig, error) {
	var cfg ServerConfig

	cfg.MySQL.Host = getEnv("DB_HOST", "127.0.0.1")
	cfg.MySQL.Port = getEnvInt("DB_PORT", 3306)
	cfg.MySQL.User = getEnv("DB_USER", "root")
	cfg.MySQL.Password = getEnv("DB_PASS", "")
	cfg.MySQL.Database = getEnv("DB_NAME", "mysql")
	cfg.MySQL.Timeout = time.Duration(getEnvInt("DB_CONNECT_TIMEOUT_SECONDS", 2)) * time.Second

	cfg.SocketPath = getEnv("MYSQLADM_SOCKET_PATH", "")
	cfg.GroupDenylistPath = getEnv("MYSQLADM_GROUP_DENYLIST", "")
	cfg.SystemdMode = getEnvBool("MYSQLADM_SYSTEMD_MODE", false)

	cfg.LogLevel = strings.ToUpper(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFile = getEnv("LOG_FILE", "/var/log/mysqladm/mysqladmd.log")
	cfg.LogMaxSize = getEnvInt("LOG_MAX_SIZE", 10)
	cfg.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", 3)
	cfg.LogMaxAge = getEnvInt("LOG_MAX_AGE", 28)
	cfg.LogCompress = getEnvBool("LOG_COMPRESS", true)

	if err := validate.Struct(cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server config: %w", err)
	}

	log.Printf("[INFO] server config loaded - DB: %s@%s:%d/%s, socket: %q, systemd: %v, log level: %s",
		cfg.MySQL.User, cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.Database,
		cfg.SocketPath, cfg.SystemdMode, cfg.LogLevel)

	return cfg, nil
}

// LoadClientConfig loads just the socket/config path overrides a client
// process needs before it can decide how to reach the server.
func LoadClientConfig() ClientConfig {
	return ClientConfig{
		SocketPath: getEnv("MYSQLADM_SOCKET_PATH", ""),
		ConfigPath: getEnv("MYSQLADM_CONFIG_PATH", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
