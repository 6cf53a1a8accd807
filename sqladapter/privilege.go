package sqladapter

import (
	"mysqladm/identity"
	"mysqladm/privilege"
	"mysqladm/validation"
)

const privilegeSelect = "SELECT `Db`, `User`, " +
	"`select_priv`, `insert_priv`, `update_priv`, `delete_priv`, " +
	"`create_priv`, `drop_priv`, `alter_priv`, `index_priv`, " +
	"`create_tmp_table_priv`, `lock_tables_priv`, `references_priv` " +
	"FROM `mysql`.`db` "

// readRows runs a privilegeSelect-shaped query and scans every result into a
// Row, using gorm's row iterator since privilege.Row's field order does not
// match a struct gorm can Scan into directly (the Y/N grant columns are
// stored as single-character strings, not Go bools).
func (a *Adapter) readRows(query string, args ...any) ([]privilege.Row, error) {
	rows, err := a.db.Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []privilege.Row
	for rows.Next() {
		var db, user string
		flags := make([]string, len(privilege.PrivilegeFieldNames))
		dest := []any{&db, &user}
		for i := range flags {
			dest = append(dest, &flags[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := privilege.Row{Database: db, User: user}
		row.SetFromYN(flags)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ReadPrivilegesForDatabase returns every existing privilege row for the
// given database, after validating the caller owns it.
func (a *Adapter) ReadPrivilegesForDatabase(id identity.Identity, database string) ([]privilege.Row, error) {
	if err := a.validate(database, validation.KindDatabase, id); err != nil {
		return nil, err
	}
	rows, err := a.readRows(privilegeSelect+"WHERE `Db` = ?", database)
	if err != nil {
		return nil, MySQLError(err)
	}
	return rows, nil
}

// ReadPrivilegesForPair returns the single row for (database, user), if it
// exists, after validating the caller owns the database.
func (a *Adapter) ReadPrivilegesForPair(id identity.Identity, database, user string) (*privilege.Row, error) {
	if err := a.validate(database, validation.KindDatabase, id); err != nil {
		return nil, err
	}
	rows, err := a.readRows(privilegeSelect+"WHERE `Db` = ? AND `User` = ?", database, user)
	if err != nil {
		return nil, MySQLError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ReadAllOwnedPrivileges returns every privilege row whose database matches
// id's ownership pattern.
func (a *Adapter) ReadAllOwnedPrivileges(id identity.Identity) ([]privilege.Row, error) {
	pattern := validation.OwnershipPattern(id, a.denylist)
	rows, err := a.readRows(privilegeSelect+"WHERE `Db` = ? OR `Db` REGEXP ?", id.Username, pattern)
	if err != nil {
		return nil, MySQLError(err)
	}
	return rows, nil
}

// ApplyPrivilegeDiffs applies one Diffs per (database, user) key, validating
// ownership of both the database and the user and the diff's precondition
// against the row's current state before issuing any SQL for that key. A
// key naming an unowned user is rejected exactly like an unowned database:
// neither half of the pair may be touched without being independently
// owned by the caller. Every statement is a
// single-row INSERT/UPDATE/DELETE, so one key's failure cannot corrupt
// another's; once the batch is done, FLUSH PRIVILEGES runs once if anything
// was actually applied.
func (a *Adapter) ApplyPrivilegeDiffs(id identity.Identity, diffs map[privilege.Key]privilege.Diffs) map[privilege.Key]error {
	results := make(map[privilege.Key]error, len(diffs))

	type applicable struct {
		key     privilege.Key
		diff    privilege.Diffs
		current *privilege.Row
	}
	var toApply []applicable

	for key, diff := range diffs {
		if diff.IsNoop() {
			results[key] = nil
			continue
		}
		if err := a.validate(key.Database, validation.KindDatabase, id); err != nil {
			results[key] = err
			continue
		}
		if err := a.validate(key.User, validation.KindUser, id); err != nil {
			results[key] = err
			continue
		}

		existing, err := a.readRows(privilegeSelect+"WHERE `Db` = ? AND `User` = ?", key.Database, key.User)
		if err != nil {
			results[key] = MySQLError(err)
			continue
		}

		var current *privilege.Row
		if len(existing) > 0 {
			current = &existing[0]
		}

		switch {
		case diff.IsNew():
			if current != nil {
				results[key] = RowAlreadyExists(key.Database, key.User)
				continue
			}
		case diff.IsModified():
			if current == nil {
				results[key] = RowDoesNotExist(key.Database, key.User)
				continue
			}
			if !modificationApplies(*diff.Modified, *current) {
				results[key] = RowPrivilegeChangeDoesNotApply(key.Database, key.User)
				continue
			}
		case diff.IsDeleted():
			if current == nil {
				results[key] = RowDoesNotExist(key.Database, key.User)
				continue
			}
		}

		toApply = append(toApply, applicable{key: key, diff: diff, current: current})
	}

	if len(toApply) == 0 {
		return results
	}

	applied := false
	for _, item := range toApply {
		if err := a.applyOneDiff(item.key, item.diff, item.current); err != nil {
			results[item.key] = MySQLError(err)
			continue
		}
		results[item.key] = nil
		applied = true
	}

	if applied {
		if err := a.db.Exec("FLUSH PRIVILEGES").Error; err != nil {
			for _, item := range toApply {
				if results[item.key] == nil {
					results[item.key] = MySQLError(err)
				}
			}
		}
	}

	return results
}

// applyOneDiff issues the single INSERT/UPDATE/DELETE statement that
// realizes one key's diff. current is the row's state as read during
// precondition checking; for a Modified diff it supplies the new values for
// every touched column.
func (a *Adapter) applyOneDiff(key privilege.Key, diff privilege.Diffs, current *privilege.Row) error {
	switch {
	case diff.IsNew():
		return a.insertRow(*diff.New)
	case diff.IsModified():
		updated := diff.Modified.Apply(*current)
		return a.updateRow(*diff.Modified, updated)
	case diff.IsDeleted():
		return a.db.Exec("DELETE FROM `mysql`.`db` WHERE `Db` = ? AND `User` = ?", key.Database, key.User).Error
	default:
		return nil
	}
}

func (a *Adapter) insertRow(row privilege.Row) error {
	cols := []string{"`Db`", "`User`"}
	placeholders := []string{"?", "?"}
	args := []any{row.Database, row.User}
	for _, field := range privilege.PrivilegeFieldNames {
		cols = append(cols, QuoteIdentifier(field))
		placeholders = append(placeholders, "?")
		args = append(args, yn(row.Get(field)))
	}

	query := "INSERT INTO `mysql`.`db` (" + join(cols, ", ") + ") VALUES (" + join(placeholders, ", ") + ")"
	return a.db.Exec(query, args...).Error
}

func (a *Adapter) updateRow(diff privilege.RowDiff, updated privilege.Row) error {
	var sets []string
	var args []any
	for _, field := range privilege.PrivilegeFieldNames {
		if diff.GetByName(field) == nil {
			continue
		}
		sets = append(sets, QuoteIdentifier(field)+" = ?")
		args = append(args, yn(updated.Get(field)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, updated.Database, updated.User)

	query := "UPDATE `mysql`.`db` SET " + join(sets, ", ") + " WHERE `Db` = ? AND `User` = ?"
	return a.db.Exec(query, args...).Error
}

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// modificationApplies checks that every field diff's "from" side matches the
// row's current value, the precondition the original enforces before
// accepting a Modified diff: a stale edit (the row changed underneath the
// editor session) is rejected rather than silently overwritten.
func modificationApplies(diff privilege.RowDiff, current privilege.Row) bool {
	for _, field := range privilege.PrivilegeFieldNames {
		change := diff.GetByName(field)
		if change == nil {
			continue
		}
		wantFrom := *change == privilege.YesToNo
		if current.Get(field) != wantFrom {
			return false
		}
	}
	return true
}
