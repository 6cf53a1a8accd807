package validation

import (
	"os/user"
	"strconv"
	"testing"

	"mysqladm/identity"

	"github.com/stretchr/testify/require"
)

// rootGID looks up the real GID of the "root" group on the host running the
// test, so FilteredGroups/OwnershipPattern (which consult the system group
// database directly, with no injectable resolver) can be exercised against a
// group guaranteed to exist on any Linux test runner.
func rootGID(t *testing.T) uint32 {
	t.Helper()
	g, err := user.LookupGroup("root")
	if err != nil {
		t.Skipf("no \"root\" group on this host: %v", err)
	}
	gid, err := strconv.ParseUint(g.Gid, 10, 32)
	require.NoError(t, err)
	return uint32(gid)
}

func TestValidNamePrefixesFiltersOutDenylistedGroup(t *testing.T) {
	gid := rootGID(t)
	id := identity.Identity{Username: "alice", Groups: []string{"root"}}
	denylist := identity.Denylist{gid: struct{}{}}

	prefixes := ValidNamePrefixes(id, denylist)
	require.Equal(t, []string{"alice"}, prefixes)
}

func TestValidNamePrefixesKeepsNonDenylistedGroup(t *testing.T) {
	id := identity.Identity{Username: "alice", Groups: []string{"root"}}

	prefixes := ValidNamePrefixes(id, identity.Denylist{})
	require.Equal(t, []string{"alice", "root"}, prefixes)
}

func TestOwnershipPatternWithNoGroups(t *testing.T) {
	id := identity.Identity{Username: "alice"}
	require.Equal(t, "^alice_.+$", OwnershipPattern(id, identity.Denylist{}))
}

func TestOwnershipPatternWithGroups(t *testing.T) {
	id := identity.Identity{Username: "alice", Groups: []string{"root"}}
	require.Equal(t, "^(alice|root)_.+$", OwnershipPattern(id, identity.Denylist{}))
}

func TestResolveGIDKnownGroup(t *testing.T) {
	want := rootGID(t)
	got, ok := ResolveGID("root")
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestResolveGIDUnknownGroup(t *testing.T) {
	_, ok := ResolveGID("mysqladm-definitely-not-a-real-group")
	require.False(t, ok)
}
