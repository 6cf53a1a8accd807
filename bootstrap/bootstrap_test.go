package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsBothSocketAndConfigPath(t *testing.T) {
	_, err := Connect("/tmp/some.sock", "/tmp/some.toml")
	require.Error(t, err)
	require.True(t, trace.IsBadParameter(err))
}

func TestCheckReadableMissingFile(t *testing.T) {
	err := checkReadable(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestCheckReadableExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\n"), 0o600))
	require.NoError(t, checkReadable(path))
}

func TestDialSocketMissingSocketIsNotFound(t *testing.T) {
	_, err := dialSocket(filepath.Join(t.TempDir(), "missing.sock"))
	require.Error(t, err)
	require.True(t, trace.IsNotFound(err))
}

func TestResolveFailsWithNoSocketOrConfigAvailable(t *testing.T) {
	// Neither path is given and the real default socket/config are not
	// expected to exist inside the test sandbox, so resolution must fail
	// with NotFound rather than silently picking something up.
	_, err := resolve("", "")
	if err == nil {
		t.Skip("a default socket or config happens to exist on this host")
	}
	require.True(t, trace.IsNotFound(err))
}

func TestDropPrivilegesIsANoOpWhenAlreadyUnprivileged(t *testing.T) {
	// Dropping to the process's own real UID/GID must always succeed,
	// privileged or not.
	require.NoError(t, DropPrivileges())
}
