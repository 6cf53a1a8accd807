package identity

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
)

// Denylist is the set of GIDs that may never be used as an ownership prefix,
// even if a caller belongs to the corresponding group. It keeps broad,
// infrastructure-wide groups (wheel, staff, docker, ...) from implicitly
// granting every member of those groups control over a same-named database
// or user.
type Denylist map[uint32]struct{}

// Has reports whether gid is on the denylist.
func (d Denylist) Has(gid uint32) bool {
	_, ok := d[gid]
	return ok
}

// LoadDenylistFile parses a group denylist file. Each non-blank,
// non-comment line must be of the form "gid:<number>" or "group:<name>";
// any other line is a fatal configuration error, reported with its line
// number so the administrator can find and fix it.
func LoadDenylistFile(path string) (Denylist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open group denylist %q: %w", path, err)
	}
	defer f.Close()

	denylist := Denylist{}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("group denylist %q line %d: expected \"gid:<number>\" or \"group:<name>\", got %q", path, lineNo, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "gid":
			gid, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("group denylist %q line %d: invalid gid %q: %w", path, lineNo, value, err)
			}
			if _, err := user.LookupGroupId(value); err != nil {
				return nil, fmt.Errorf("group denylist %q line %d: gid %d does not resolve to a group: %w", path, lineNo, gid, err)
			}
			denylist[uint32(gid)] = struct{}{}
		case "group":
			g, err := user.LookupGroup(value)
			if err != nil {
				return nil, fmt.Errorf("group denylist %q line %d: group %q does not exist: %w", path, lineNo, value, err)
			}
			gid, err := strconv.ParseUint(g.Gid, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("group denylist %q line %d: group %q has non-numeric gid %q", path, lineNo, value, g.Gid)
			}
			denylist[uint32(gid)] = struct{}{}
		default:
			return nil, fmt.Errorf("group denylist %q line %d: unknown directive %q, expected \"gid\" or \"group\"", path, lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read group denylist %q: %w", path, err)
	}

	return denylist, nil
}

// FilteredGroups returns the caller's groups with denylisted groups removed.
// A group name that no longer resolves to a GID is passed through
// unfiltered, matching the original's treatment of stale group entries: a
// broken lookup is not reason enough to silently drop a prefix a caller may
// legitimately own.
func FilteredGroups(id Identity, denylist Denylist) []string {
	filtered := make([]string, 0, len(id.Groups))
	for _, group := range id.Groups {
		g, err := user.LookupGroup(group)
		if err != nil {
			filtered = append(filtered, group)
			continue
		}
		gid, err := strconv.ParseUint(g.Gid, 10, 32)
		if err != nil {
			filtered = append(filtered, group)
			continue
		}
		if denylist.Has(uint32(gid)) {
			continue
		}
		filtered = append(filtered, g.Name)
	}
	return filtered
}
