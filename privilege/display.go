package privilege

import (
	"fmt"
	"sort"
	"strings"
)

// describeChange renders the human-readable change summary shown in a diff
// table's "Change" column for a single (database, user) entry.
func (d Diffs) describeChange() string {
	switch d.kind {
	case diffsNew:
		return "New row: " + strings.TrimSpace(strings.ReplaceAll(d.New.String(), "\n", ", "))
	case diffsModified:
		changes := strings.TrimSpace(strings.ReplaceAll(d.Modified.String(), "\n", ", "))
		if changes == "" {
			return "No changes"
		}
		return changes
	case diffsDeleted:
		return "Row deleted"
	default:
		return "No changes"
	}
}

// DisplayRow is one line of a rendered diff table.
type DisplayRow struct {
	Database string
	User     string
	Change   string
}

// DisplayRows renders diffs as the three-column (Database, User, Change)
// table the CLI front end prints before asking the caller to confirm a
// batch of privilege changes. Rows are ordered by (database, user).
func DisplayRows(diffs map[Key]Diffs) []DisplayRow {
	keys := make([]Key, 0, len(diffs))
	for k := range diffs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Database != keys[j].Database {
			return keys[i].Database < keys[j].Database
		}
		return keys[i].User < keys[j].User
	})

	rows := make([]DisplayRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, DisplayRow{
			Database: k.Database,
			User:     k.User,
			Change:   diffs[k].describeChange(),
		})
	}
	return rows
}

// RenderTable renders DisplayRows as a whitespace-aligned table with a
// "Database / User / Change" header, matching the column-alignment
// convention used elsewhere by the editor serializer.
func RenderTable(rows []DisplayRow) string {
	dbWidth, userWidth := len("Database"), len("User")
	for _, r := range rows {
		dbWidth = max(dbWidth, len(r.Database))
		userWidth = max(userWidth, len(r.User))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s %-*s %s\n", dbWidth, "Database", userWidth, "User", "Change")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-*s %-*s %s\n", dbWidth, r.Database, userWidth, r.User, r.Change)
	}
	return b.String()
}
