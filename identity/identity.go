// Package identity resolves the UNIX identity of the caller on the other end
// of the broker's control socket, and loads the administrator-maintained
// group denylist used to keep system and infrastructure groups out of the
// ownership-prefix authorization model.
package identity

import (
	"fmt"
	"os/user"
	"sort"
	"strconv"

	"mysqladm/pkg/logger"
)

// Identity is the caller identity the session handler authorizes requests
// against: the UNIX username plus the supplementary group names the caller
// belongs to.
type Identity struct {
	Username string
	Groups   []string
}

// String renders the identity the way it is logged: "user [g1 g2 ...]", or
// just "user" when there are no groups.
func (id Identity) String() string {
	if len(id.Groups) == 0 {
		return id.Username
	}
	return fmt.Sprintf("%s %v", id.Username, id.Groups)
}

// FromUID resolves the full identity — username and supplementary groups —
// of the given numeric UID. It is used by the server once it has recovered
// the peer UID of a connecting client via SO_PEERCRED.
func FromUID(uid uint32) (Identity, error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return Identity{}, fmt.Errorf("resolve uid %d: %w", uid, err)
	}

	groups, err := groupNames(u)
	if err != nil {
		// A user with an unresolvable group list is unusual but not fatal:
		// fall back to an empty group set rather than refusing the
		// connection outright, matching the original's per-group
		// best-effort lookup.
		logger.Warnf("failed to resolve groups for uid %d (%s): %v", uid, u.Username, err)
		groups = nil
	}

	return Identity{Username: u.Username, Groups: groups}, nil
}

// FromEnvironment resolves the identity of the process's own real user,
// without asking a server.
func FromEnvironment() (Identity, error) {
	u, err := user.Current()
	if err != nil {
		return Identity{}, fmt.Errorf("resolve current user: %w", err)
	}

	groups, err := groupNames(u)
	if err != nil {
		logger.Warnf("failed to resolve groups for current user (%s): %v", u.Username, err)
		groups = nil
	}

	return Identity{Username: u.Username, Groups: groups}, nil
}

// groupNames resolves the names of every group the given user belongs to,
// sorted for deterministic output. os/user.User.GroupIds already requires no
// cgo on Linux, matching the portability story of the original's
// getgrouplist-based lookup.
func groupNames(u *user.User) ([]string, error) {
	gids, err := u.GroupIds()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(gids))
	for _, gid := range gids {
		g, err := user.LookupGroupId(gid)
		if err != nil {
			// A group id that no longer resolves to a name is skipped,
			// not fatal, mirroring the original's per-group handling.
			logger.Warnf("failed to resolve group id %s: %v", gid, err)
			continue
		}
		names = append(names, g.Name)
	}
	sort.Strings(names)
	return names, nil
}
