package sqladapter

import (
	"mysqladm/identity"
	"mysqladm/validation"
)

// excludedSchemas are MySQL/MariaDB's own internal schemas, never reported
// by the "list everything I own" family of operations regardless of
// ownership-prefix matching.
var excludedSchemas = []string{"information_schema", "performance_schema", "mysql", "sys"}

func (a *Adapter) databaseExists(name string) (bool, error) {
	var count int64
	err := a.db.Raw(
		"SELECT COUNT(*) FROM `information_schema`.`SCHEMATA` WHERE `SCHEMA_NAME` = ?", name,
	).Scan(&count).Error
	return count > 0, err
}

// CreateDatabases creates each requested database, returning one error (or
// nil for success) per input name. A name that fails validation or already
// exists is rejected without any further item in the batch being affected.
func (a *Adapter) CreateDatabases(id identity.Identity, names []string) map[string]error {
	results := make(map[string]error, len(names))
	ok := a.validateBatch(names, validation.KindDatabase, id, results)

	for _, name := range ok {
		exists, err := a.databaseExists(name)
		if err != nil {
			results[name] = MySQLError(err)
			continue
		}
		if exists {
			results[name] = AlreadyExists("database", name)
			continue
		}

		if err := a.db.Exec("CREATE DATABASE " + QuoteIdentifier(name)).Error; err != nil {
			results[name] = MySQLError(err)
			continue
		}
		results[name] = nil
	}

	return results
}

// DropDatabases drops each requested database, one error (or nil) per name.
func (a *Adapter) DropDatabases(id identity.Identity, names []string) map[string]error {
	results := make(map[string]error, len(names))
	ok := a.validateBatch(names, validation.KindDatabase, id, results)

	for _, name := range ok {
		exists, err := a.databaseExists(name)
		if err != nil {
			results[name] = MySQLError(err)
			continue
		}
		if !exists {
			results[name] = DoesNotExist("database", name)
			continue
		}

		if err := a.db.Exec("DROP DATABASE " + QuoteIdentifier(name)).Error; err != nil {
			results[name] = MySQLError(err)
			continue
		}
		results[name] = nil
	}

	return results
}

// DatabaseRow is the read-only projection returned by ListDatabases and
// ListAllOwnedDatabases.
type DatabaseRow struct {
	Database string
}

// ListDatabases reports, for each requested name, the database row if it
// exists and is owned by id, or the appropriate validation/existence error.
func (a *Adapter) ListDatabases(id identity.Identity, names []string) map[string]Outcome[DatabaseRow] {
	results := make(map[string]Outcome[DatabaseRow], len(names))
	for _, name := range names {
		if err := a.validate(name, validation.KindDatabase, id); err != nil {
			results[name] = Fail[DatabaseRow](err)
			continue
		}
		exists, err := a.databaseExists(name)
		if err != nil {
			results[name] = Fail[DatabaseRow](MySQLError(err))
			continue
		}
		if !exists {
			results[name] = Fail[DatabaseRow](DoesNotExist("database", name))
			continue
		}
		results[name] = Ok(DatabaseRow{Database: name})
	}
	return results
}

// ListAllOwnedDatabases enumerates every schema (excluding the engine's own
// internal schemas) matching id's ownership pattern (§4.1's regex form).
func (a *Adapter) ListAllOwnedDatabases(id identity.Identity) ([]DatabaseRow, error) {
	pattern := validation.OwnershipPattern(id, a.denylist)

	var names []string
	err := a.db.Raw(
		"SELECT `SCHEMA_NAME` FROM `information_schema`.`SCHEMATA` "+
			"WHERE `SCHEMA_NAME` NOT IN (?, ?, ?, ?) AND (`SCHEMA_NAME` = ? OR `SCHEMA_NAME` REGEXP ?)",
		excludedSchemas[0], excludedSchemas[1], excludedSchemas[2], excludedSchemas[3],
		id.Username, pattern,
	).Scan(&names).Error
	if err != nil {
		return nil, MySQLError(err)
	}

	rows := make([]DatabaseRow, 0, len(names))
	for _, n := range names {
		rows = append(rows, DatabaseRow{Database: n})
	}
	return rows, nil
}

// CompleteDatabaseName returns owned database names starting with partial,
// for shell-completion use only. A partial name that fails basic character
// validation yields an empty result rather than an error, matching the
// original's best-effort completion behavior.
func (a *Adapter) CompleteDatabaseName(id identity.Identity, partial string) []string {
	if !isCompletionSafe(partial) {
		return nil
	}

	owned, err := a.ListAllOwnedDatabases(id)
	if err != nil {
		return nil
	}

	var matches []string
	for _, row := range owned {
		if len(row.Database) >= len(partial) && row.Database[:len(partial)] == partial {
			matches = append(matches, row.Database)
		}
	}
	return matches
}

func isCompletionSafe(s string) bool {
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
