package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityStringWithoutGroups(t *testing.T) {
	id := Identity{Username: "alice"}
	require.Equal(t, "alice", id.String())
}

func TestIdentityStringWithGroups(t *testing.T) {
	id := Identity{Username: "alice", Groups: []string{"devs", "ops"}}
	require.Equal(t, "alice [devs ops]", id.String())
}

func TestFromEnvironmentResolvesCurrentUser(t *testing.T) {
	id, err := FromEnvironment()
	require.NoError(t, err)
	require.NotEmpty(t, id.Username)
}
