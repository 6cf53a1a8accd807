// Package validation implements the broker's authorization core: the
// ownership-prefix model that decides whether a given caller identity is
// permitted to name a given database or user, independent of any
// MySQL/MariaDB state.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"mysqladm/identity"
)

// Kind distinguishes the two kinds of object a name can refer to, purely so
// error messages can say "database" or "user" without duplicating every
// validation function.
type Kind int

const (
	KindDatabase Kind = iota
	KindUser
)

func (k Kind) lowercasedNoun() string {
	if k == KindDatabase {
		return "database"
	}
	return "user"
}

func (k Kind) capitalizedNoun() string {
	if k == KindDatabase {
		return "Database"
	}
	return "User"
}

// Error is a structured validation failure. Kind() lets callers map the
// failure onto a stable category without parsing the message.
type Error struct {
	kind    string
	message string
}

func (e *Error) Error() string { return e.message }

// Kind returns a short, stable slug identifying the failure category:
// "empty", "invalid_characters", "too_long", "illegal_prefix",
// "string_empty", or "denylisted".
func (e *Error) Kind() string { return e.kind }

func newError(kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

var nameCharacters = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const maxNameLength = 64

// ValidateName checks that name is non-empty, no longer than 64 characters,
// and contains only ASCII letters, digits, underscores and hyphens. It says
// nothing about ownership; see Authorize for that.
func ValidateName(name string, kind Kind) error {
	if name == "" {
		return newError("empty", fmt.Sprintf("%s name cannot be empty", kind.lowercasedNoun()))
	}
	if len(name) > maxNameLength {
		return newError("too_long", fmt.Sprintf("%s name cannot be longer than %d characters", kind.lowercasedNoun(), maxNameLength))
	}
	if !nameCharacters.MatchString(name) {
		return newError("invalid_characters", fmt.Sprintf("%s name can only contain alphanumeric characters, underscores and hyphens", kind.lowercasedNoun()))
	}
	return nil
}

// AuthorizeByPrefixes checks that name either equals one of the given
// prefixes exactly, or begins with one of them followed by an underscore.
// A bare prefix without the underscore ("user" vs "userdb") is never
// sufficient: the prefix must delimit a name segment the caller owns.
func AuthorizeByPrefixes(name string, prefixes []string, kind Kind) error {
	if name == "" {
		return newError("string_empty", fmt.Sprintf("%s name cannot be empty", kind.lowercasedNoun()))
	}

	for _, prefix := range prefixes {
		if name == prefix || strings.HasPrefix(name, prefix+"_") {
			return nil
		}
	}

	return newError("illegal_prefix", fmt.Sprintf(
		"%s name must either equal one of your allowed prefixes, or start with one of them followed by an underscore: %v",
		kind.capitalizedNoun(), prefixes,
	))
}

// AuthorizeByIdentity builds the caller's prefix list — their username plus
// every group they belong to that is not on the denylist — and delegates to
// AuthorizeByPrefixes. A denylisted group is never a valid prefix in its own
// right, so it must not reach this list at all; AuthorizeByGroupDenylist
// only catches the case where the requested name IS the denylisted group's
// own name, not the case where membership in that group is being used to
// justify some other prefixed name.
func AuthorizeByIdentity(name string, id identity.Identity, denylist identity.Denylist, kind Kind) error {
	groups := identity.FilteredGroups(id, denylist)
	prefixes := make([]string, 0, len(groups)+1)
	prefixes = append(prefixes, id.Username)
	prefixes = append(prefixes, groups...)
	return AuthorizeByPrefixes(name, prefixes, kind)
}

// AuthorizeByGroupDenylist enforces the denylist half of the ownership
// model: if name equals the caller's own username, the denylist never
// applies (a user always owns resources prefixed with their own name). If
// name matches a group name that resolves to a denylisted GID, the request
// is rejected even though the caller is a member of that group. Names that
// are not themselves group names are left untouched by this check — it only
// ever rejects, it never authorizes.
func AuthorizeByGroupDenylist(name string, id identity.Identity, denylist identity.Denylist, resolveGID func(group string) (uint32, bool)) error {
	if name == id.Username {
		return nil
	}

	gid, ok := resolveGID(name)
	if ok && denylist.Has(gid) {
		return newError("denylisted", fmt.Sprintf("the group %q is not permitted to be used as a %s name prefix", name, "name"))
	}
	return nil
}

// ValidateDBOrUserRequest runs the full validation pipeline for a single
// name: structural validation, then ownership-prefix authorization, then
// the group denylist check. Each stage short-circuits on the first failure.
func ValidateDBOrUserRequest(name string, kind Kind, id identity.Identity, denylist identity.Denylist, resolveGID func(group string) (uint32, bool)) error {
	if err := ValidateName(name, kind); err != nil {
		return err
	}
	if err := AuthorizeByIdentity(name, id, denylist, kind); err != nil {
		return err
	}
	return AuthorizeByGroupDenylist(name, id, denylist, resolveGID)
}
