package sqladapter

import (
	"mysqladm/identity"
	"mysqladm/privilege"
	"mysqladm/validation"
)

func (a *Adapter) userExists(name string) (bool, error) {
	var count int64
	err := a.db.Raw("SELECT COUNT(*) FROM `mysql`.`user` WHERE `User` = ?", name).Scan(&count).Error
	return count > 0, err
}

// userIsLocked reads the account_locked flag out of mysql.global_priv's JSON
// priv column, treating a missing/null value as unlocked — the null-safe
// default the spec requires.
func (a *Adapter) userIsLocked(name string) (bool, error) {
	var locked bool
	err := a.db.Raw(
		"SELECT COALESCE(JSON_EXTRACT(`priv`, '$.account_locked'), 'false') != 'false' "+
			"FROM `mysql`.`global_priv` WHERE `User` = ? AND `Host` = '%'", name,
	).Scan(&locked).Error
	return locked, err
}

// CreateUsers creates each requested MySQL account (at host '%'), one error
// (or nil) per name.
func (a *Adapter) CreateUsers(id identity.Identity, names []string) map[string]error {
	results := make(map[string]error, len(names))
	ok := a.validateBatch(names, validation.KindUser, id, results)

	for _, name := range ok {
		exists, err := a.userExists(name)
		if err != nil {
			results[name] = MySQLError(err)
			continue
		}
		if exists {
			results[name] = AlreadyExists("user", name)
			continue
		}

		if err := a.db.Exec("CREATE USER " + QuoteLiteral(name) + "@'%'").Error; err != nil {
			results[name] = MySQLError(err)
			continue
		}
		results[name] = nil
	}

	return results
}

// DropUsers drops each requested account, one error (or nil) per name.
func (a *Adapter) DropUsers(id identity.Identity, names []string) map[string]error {
	results := make(map[string]error, len(names))
	ok := a.validateBatch(names, validation.KindUser, id, results)

	for _, name := range ok {
		exists, err := a.userExists(name)
		if err != nil {
			results[name] = MySQLError(err)
			continue
		}
		if !exists {
			results[name] = DoesNotExist("user", name)
			continue
		}

		if err := a.db.Exec("DROP USER " + QuoteLiteral(name) + "@'%'").Error; err != nil {
			results[name] = MySQLError(err)
			continue
		}
		if err := a.db.Exec("FLUSH PRIVILEGES").Error; err != nil {
			results[name] = MySQLError(err)
			continue
		}
		results[name] = nil
	}

	return results
}

// SetPassword sets db_user's password, after validating ownership and
// existence. A nil error means success.
func (a *Adapter) SetPassword(id identity.Identity, name, password string) error {
	if err := a.validate(name, validation.KindUser, id); err != nil {
		return err
	}
	exists, err := a.userExists(name)
	if err != nil {
		return MySQLError(err)
	}
	if !exists {
		return DoesNotExist("user", name)
	}

	stmt := "ALTER USER " + QuoteLiteral(name) + "@'%' IDENTIFIED BY " + QuoteLiteral(password)
	if err := a.db.Exec(stmt).Error; err != nil {
		return MySQLError(err)
	}
	return nil
}

// LockUsers locks each requested account, rejecting any already locked.
func (a *Adapter) LockUsers(id identity.Identity, names []string) map[string]error {
	return a.setLockState(id, names, true)
}

// UnlockUsers unlocks each requested account, rejecting any already unlocked.
func (a *Adapter) UnlockUsers(id identity.Identity, names []string) map[string]error {
	return a.setLockState(id, names, false)
}

func (a *Adapter) setLockState(id identity.Identity, names []string, lock bool) map[string]error {
	results := make(map[string]error, len(names))
	ok := a.validateBatch(names, validation.KindUser, id, results)

	action := "LOCK"
	if !lock {
		action = "UNLOCK"
	}

	for _, name := range ok {
		exists, err := a.userExists(name)
		if err != nil {
			results[name] = MySQLError(err)
			continue
		}
		if !exists {
			results[name] = DoesNotExist("user", name)
			continue
		}

		locked, err := a.userIsLocked(name)
		if err != nil {
			results[name] = MySQLError(err)
			continue
		}
		if lock && locked {
			results[name] = AlreadyLocked(name)
			continue
		}
		if !lock && !locked {
			results[name] = AlreadyUnlocked(name)
			continue
		}

		stmt := "ALTER USER " + QuoteLiteral(name) + "@'%' ACCOUNT " + action
		if err := a.db.Exec(stmt).Error; err != nil {
			results[name] = MySQLError(err)
			continue
		}
		results[name] = nil
	}

	return results
}

// DatabaseUser is the read-only projection of a MySQL account returned by
// ListUsers and ListAllOwnedUsers.
type DatabaseUser struct {
	User        string
	Host        string
	HasPassword bool
	IsLocked    bool
	Databases   []string
}

const userSelect = "SELECT `user`.`User` AS `User`, `user`.`Host` AS `Host`, " +
	"(`user`.`authentication_string` != '') AS `HasPassword`, " +
	"(COALESCE(JSON_EXTRACT(`global_priv`.`priv`, '$.account_locked'), 'false') != 'false') AS `IsLocked` " +
	"FROM `mysql`.`user` AS `user` " +
	"JOIN `mysql`.`global_priv` AS `global_priv` " +
	"ON `user`.`User` = `global_priv`.`User` AND `user`.`Host` = `global_priv`.`Host` "

func (a *Adapter) databasesWithPrivilegesFor(user string) ([]string, error) {
	clauses := make([]string, 0, len(privilege.PrivilegeFieldNames))
	for _, f := range privilege.PrivilegeFieldNames {
		clauses = append(clauses, QuoteIdentifier(f)+" = 'Y'")
	}
	query := "SELECT DISTINCT `Db` FROM `mysql`.`db` WHERE `User` = ? AND (" + join(clauses, " OR ") + ")"

	var dbs []string
	err := a.db.Raw(query, user).Scan(&dbs).Error
	return dbs, err
}

// ListUsers reports, for each requested name, the account row (with its
// owned-database list populated) or the appropriate error.
func (a *Adapter) ListUsers(id identity.Identity, names []string) map[string]Outcome[DatabaseUser] {
	results := make(map[string]Outcome[DatabaseUser], len(names))
	for _, name := range names {
		if err := a.validate(name, validation.KindUser, id); err != nil {
			results[name] = Fail[DatabaseUser](err)
			continue
		}

		var u DatabaseUser
		err := a.db.Raw(userSelect+"WHERE `user`.`User` = ?", name).Scan(&u).Error
		if err != nil {
			results[name] = Fail[DatabaseUser](MySQLError(err))
			continue
		}
		if u.User == "" {
			results[name] = Fail[DatabaseUser](DoesNotExist("user", name))
			continue
		}

		dbs, err := a.databasesWithPrivilegesFor(u.User)
		if err != nil {
			results[name] = Fail[DatabaseUser](MySQLError(err))
			continue
		}
		u.Databases = dbs
		results[name] = Ok(u)
	}
	return results
}

// ListAllOwnedUsers enumerates every account whose name matches id's
// ownership pattern, each with its owned-database list populated.
func (a *Adapter) ListAllOwnedUsers(id identity.Identity) ([]DatabaseUser, error) {
	pattern := validation.OwnershipPattern(id, a.denylist)

	var users []DatabaseUser
	err := a.db.Raw(
		userSelect+"WHERE `user`.`User` = ? OR `user`.`User` REGEXP ?",
		id.Username, pattern,
	).Scan(&users).Error
	if err != nil {
		return nil, MySQLError(err)
	}

	for i := range users {
		dbs, err := a.databasesWithPrivilegesFor(users[i].User)
		if err != nil {
			return nil, MySQLError(err)
		}
		users[i].Databases = dbs
	}
	return users, nil
}

// CompleteUserName returns owned user names starting with partial, for
// shell-completion use only.
func (a *Adapter) CompleteUserName(id identity.Identity, partial string) []string {
	if !isCompletionSafe(partial) {
		return nil
	}

	owned, err := a.ListAllOwnedUsers(id)
	if err != nil {
		return nil
	}

	var matches []string
	for _, u := range owned {
		if len(u.User) >= len(partial) && u.User[:len(partial)] == partial {
			matches = append(matches, u.User)
		}
	}
	return matches
}

func join(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
