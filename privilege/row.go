// Package privilege implements the privilege row model, the diff algebra
// used to describe and safely apply changes to a database's grant table,
// and the human-editable text serialization used by the interactive editor
// workflow.
package privilege

import "fmt"

// FieldNames is the fixed, ordered set of columns in MySQL's mysql.db grant
// table that this broker understands. The order matters: it drives SQL
// column ordering, editor column ordering, and row-diff field ordering, and
// must never be reshuffled without updating all three in lockstep.
var FieldNames = []string{
	"Db", "User",
	"select_priv", "insert_priv", "update_priv", "delete_priv",
	"create_priv", "drop_priv", "alter_priv", "index_priv",
	"create_tmp_table_priv", "lock_tables_priv", "references_priv",
}

// PrivilegeFieldNames is FieldNames minus the Db/User key columns — the
// eleven boolean grant flags a row actually carries.
var PrivilegeFieldNames = FieldNames[2:]

var humanReadableNames = map[string]string{
	"Db":                    "Database",
	"User":                  "User",
	"select_priv":           "Select",
	"insert_priv":           "Insert",
	"update_priv":           "Update",
	"delete_priv":           "Delete",
	"create_priv":           "Create",
	"drop_priv":             "Drop",
	"alter_priv":            "Alter",
	"index_priv":            "Index",
	"create_tmp_table_priv": "Temp",
	"lock_tables_priv":      "Lock",
	"references_priv":       "References",
}

// HumanReadableName returns the column's editor/display label.
func HumanReadableName(field string) string {
	name, ok := humanReadableNames[field]
	if !ok {
		panic(fmt.Sprintf("privilege: unknown field %q", field))
	}
	return name
}

// Row is a single (database, user) grant-table row: which of the eleven
// privilege flags are set for that pair.
type Row struct {
	Database string
	User     string

	Select         bool
	Insert         bool
	Update         bool
	Delete         bool
	Create         bool
	Drop           bool
	Alter          bool
	Index          bool
	CreateTmpTable bool
	LockTables     bool
	References     bool
}

// fieldPointers returns, in FieldNames order (skipping Db/User), a pointer
// to each of the row's boolean fields. Centralizing this mapping is what
// lets the diff algebra, the SQL adapter and the editor serializer all walk
// the same eleven fields without repeating a thirteen-way switch each.
func (r *Row) fieldPointers() []*bool {
	return []*bool{
		&r.Select, &r.Insert, &r.Update, &r.Delete,
		&r.Create, &r.Drop, &r.Alter, &r.Index,
		&r.CreateTmpTable, &r.LockTables, &r.References,
	}
}

// Get returns the value of a named privilege field ("select_priv", ...).
func (r Row) Get(field string) bool {
	row := r
	for i, f := range PrivilegeFieldNames {
		if f == field {
			return *row.fieldPointers()[i]
		}
	}
	panic(fmt.Sprintf("privilege: unknown field %q", field))
}

// SetByName sets a named privilege field to value. Used by the SQL adapter
// to build a Row up from a generic ordered scan of the grant table's Y/N
// columns without exposing fieldPointers outside this package.
func (r *Row) SetByName(field string, value bool) {
	for i, f := range PrivilegeFieldNames {
		if f == field {
			*r.fieldPointers()[i] = value
			return
		}
	}
	panic(fmt.Sprintf("privilege: unknown field %q", field))
}

// SetFromYN sets every privilege field from an ordered slice of "Y"/"N"
// tokens matching PrivilegeFieldNames order — the shape a raw grant-table
// row scan produces.
func (r *Row) SetFromYN(flags []string) {
	if len(flags) != len(PrivilegeFieldNames) {
		panic("privilege: SetFromYN requires one token per privilege field")
	}
	for i, field := range PrivilegeFieldNames {
		value, ok := revYN(flags[i])
		if !ok {
			panic(fmt.Sprintf("privilege: invalid Y/N token %q for field %q", flags[i], field))
		}
		r.SetByName(field, value)
	}
}

// Key identifies a row by its (database, user) pair.
type Key struct {
	Database string
	User     string
}

func (r Row) Key() Key { return Key{Database: r.Database, User: r.User} }

// String renders a row the way the original prints it for human
// consumption: one "HumanName: Y" / "HumanName: N" line per privilege
// field, skipping the Db/User key columns.
func (r Row) String() string {
	s := ""
	values := r.fieldPointers()
	for i, field := range PrivilegeFieldNames {
		mark := "N"
		if *values[i] {
			mark = "Y"
		}
		s += fmt.Sprintf("%s: %s\n", HumanReadableName(field), mark)
	}
	return s
}

// yn renders a boolean as the grant table's "Y"/"N" convention.
func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// revYN parses a case-insensitive "y"/"n" token. ok is false for anything
// else, including the empty string.
func revYN(s string) (value bool, ok bool) {
	switch s {
	case "Y", "y":
		return true, true
	case "N", "n":
		return false, true
	default:
		return false, false
	}
}
