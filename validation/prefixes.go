package validation

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"mysqladm/identity"
)

// ResolveGID resolves a prefix candidate as a UNIX group name, returning its
// GID and true on success. It is the default resolver passed to
// AuthorizeByGroupDenylist (through ValidateDBOrUserRequest) in production;
// tests can substitute a stub to avoid depending on the host's group
// database.
func ResolveGID(group string) (uint32, bool) {
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, false
	}
	gid, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(gid), true
}

// ValidNamePrefixes returns the full list of prefixes the caller may use:
// their own username, plus every group they belong to that is not on the
// denylist. This is exactly what ListValidNamePrefixes reports back to the
// client, and exactly what the ownership regex below is built from.
func ValidNamePrefixes(id identity.Identity, denylist identity.Denylist) []string {
	prefixes := make([]string, 0, len(id.Groups)+1)
	prefixes = append(prefixes, id.Username)
	prefixes = append(prefixes, identity.FilteredGroups(id, denylist)...)
	return prefixes
}

// OwnershipPattern builds the SQL REGEXP pattern matching every name the
// caller is entitled to, used by the "list everything I own" family of
// operations: "^(user|group1|group2)_.+$", or "^user_.+$" if the caller
// belongs to no eligible groups.
func OwnershipPattern(id identity.Identity, denylist identity.Denylist) string {
	groups := identity.FilteredGroups(id, denylist)
	if len(groups) == 0 {
		return fmt.Sprintf("^%s_.+$", id.Username)
	}
	return fmt.Sprintf("^(%s|%s)_.+$", id.Username, strings.Join(groups, "|"))
}
