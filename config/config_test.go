package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetEnvReturnsSetValue(t *testing.T) {
	t.Setenv("MYSQLADM_TEST_KEY", "explicit")
	require.Equal(t, "explicit", getEnv("MYSQLADM_TEST_KEY", "default"))
}

func TestGetEnvFallsBackToDefault(t *testing.T) {
	require.Equal(t, "default", getEnv("MYSQLADM_TEST_KEY_UNSET", "default"))
}

func TestGetEnvIntParsesValidInt(t *testing.T) {
	t.Setenv("MYSQLADM_TEST_INT", "42")
	require.Equal(t, 42, getEnvInt("MYSQLADM_TEST_INT", 7))
}

func TestGetEnvIntFallsBackOnInvalid(t *testing.T) {
	t.Setenv("MYSQLADM_TEST_INT", "not-a-number")
	require.Equal(t, 7, getEnvInt("MYSQLADM_TEST_INT", 7))
}

func TestGetEnvIntFallsBackOnUnset(t *testing.T) {
	require.Equal(t, 7, getEnvInt("MYSQLADM_TEST_INT_UNSET", 7))
}

func TestGetEnvBoolParsesValidBool(t *testing.T) {
	t.Setenv("MYSQLADM_TEST_BOOL", "true")
	require.True(t, getEnvBool("MYSQLADM_TEST_BOOL", false))

	t.Setenv("MYSQLADM_TEST_BOOL", "false")
	require.False(t, getEnvBool("MYSQLADM_TEST_BOOL", true))
}

func TestGetEnvBoolFallsBackOnInvalid(t *testing.T) {
	t.Setenv("MYSQLADM_TEST_BOOL", "not-a-bool")
	require.True(t, getEnvBool("MYSQLADM_TEST_BOOL", true))
}

func TestMySQLConfigDSNFormat(t *testing.T) {
	cfg := MySQLConfig{
		Host:     "127.0.0.1",
		Port:     3306,
		User:     "root",
		Password: "secret",
		Database: "mysql",
	}
	require.Equal(t, "root:secret@tcp(127.0.0.1:3306)/mysql?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}

func TestLoadClientConfigReadsOverrides(t *testing.T) {
	t.Setenv("MYSQLADM_SOCKET_PATH", "/run/custom.sock")
	t.Setenv("MYSQLADM_CONFIG_PATH", "")

	cfg := LoadClientConfig()
	require.Equal(t, "/run/custom.sock", cfg.SocketPath)
	require.Empty(t, cfg.ConfigPath)
}

func TestBuildServerConfigRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "NOT_A_LEVEL")
	_, err := buildServerConfig()
	require.Error(t, err)
}

func TestBuildServerConfigAppliesDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("LOG_FILE", "")

	cfg, err := buildServerConfig()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.MySQL.Host)
	require.Equal(t, 3306, cfg.MySQL.Port)
	require.Equal(t, "root", cfg.MySQL.User)
	require.Equal(t, "mysql", cfg.MySQL.Database)
	require.Equal(t, "INFO", cfg.LogLevel)
}
