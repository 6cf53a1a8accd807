package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSingleSessionConfigPathUnset(t *testing.T) {
	t.Setenv(singleSessionConfigEnv, "")
	path, ok := SingleSessionConfigPath()
	require.False(t, ok)
	require.Empty(t, path)
}

func TestSingleSessionConfigPathSet(t *testing.T) {
	t.Setenv(singleSessionConfigEnv, "/etc/mysqladm/server.toml")
	path, ok := SingleSessionConfigPath()
	require.True(t, ok)
	require.Equal(t, "/etc/mysqladm/server.toml", path)
}
