package identity

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func rootGID(t *testing.T) string {
	t.Helper()
	g, err := user.LookupGroup("root")
	if err != nil {
		t.Skipf("no \"root\" group on this host: %v", err)
	}
	return g.Gid
}

func writeDenylist(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "denylist")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDenylistFileByGID(t *testing.T) {
	gid := rootGID(t)
	path := writeDenylist(t, "# system groups\ngid:"+gid+"\n")

	denylist, err := LoadDenylistFile(path)
	require.NoError(t, err)

	want, err := strconv.ParseUint(gid, 10, 32)
	require.NoError(t, err)
	require.True(t, denylist.Has(uint32(want)))
}

func TestLoadDenylistFileByGroupName(t *testing.T) {
	path := writeDenylist(t, "group:root\n")

	denylist, err := LoadDenylistFile(path)
	require.NoError(t, err)

	gid := rootGID(t)
	want, err := strconv.ParseUint(gid, 10, 32)
	require.NoError(t, err)
	require.True(t, denylist.Has(uint32(want)))
}

func TestLoadDenylistFileSkipsBlankAndCommentLines(t *testing.T) {
	path := writeDenylist(t, "\n# nothing here\n\ngroup:root\n")

	denylist, err := LoadDenylistFile(path)
	require.NoError(t, err)
	require.Len(t, denylist, 1)
}

func TestLoadDenylistFileRejectsUnknownDirective(t *testing.T) {
	path := writeDenylist(t, "uid:1000\n")

	_, err := LoadDenylistFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown directive")
}

func TestLoadDenylistFileRejectsMalformedLine(t *testing.T) {
	path := writeDenylist(t, "not-a-directive-line\n")

	_, err := LoadDenylistFile(path)
	require.Error(t, err)
}

func TestLoadDenylistFileRejectsUnresolvableGroup(t *testing.T) {
	path := writeDenylist(t, "group:mysqladm-definitely-not-a-real-group\n")

	_, err := LoadDenylistFile(path)
	require.Error(t, err)
}

func TestLoadDenylistFileMissingFile(t *testing.T) {
	_, err := LoadDenylistFile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestDenylistHasOnEmptyDenylist(t *testing.T) {
	var denylist Denylist
	require.False(t, denylist.Has(0))
}
