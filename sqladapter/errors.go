package sqladapter

import "fmt"

// Error is the typed, per-item failure an adapter operation reports. It
// never aborts a batch: every function in this package that operates on a
// set of names returns one Error (or nil) per item, matching the broker's
// "one bad item in a batch must not block the others" guarantee.
type Error struct {
	kind    string
	message string
}

func (e *Error) Error() string { return e.message }

// Kind returns a stable, matchable category: "already_exists",
// "does_not_exist", "already_locked", "already_unlocked",
// "diff_does_not_apply", or "mysql_error". Name validation
// and authorization failures surface as *validation.Error instead, not as
// *Error, since they are rejected before any SQL is considered.
func (e *Error) Kind() string { return e.kind }

func newError(kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// AlreadyExists reports that a create operation's target already exists.
func AlreadyExists(kind, name string) *Error {
	return newError("already_exists", "%s %q already exists", kind, name)
}

// DoesNotExist reports that an operation's target does not exist.
func DoesNotExist(kind, name string) *Error {
	return newError("does_not_exist", "%s %q does not exist", kind, name)
}

// AlreadyLocked reports that a lock operation's target is already locked.
func AlreadyLocked(name string) *Error {
	return newError("already_locked", "user %q is already locked", name)
}

// AlreadyUnlocked reports that an unlock operation's target is already unlocked.
func AlreadyUnlocked(name string) *Error {
	return newError("already_unlocked", "user %q is already unlocked", name)
}

// RowAlreadyExists reports a New diff whose (database, user) row is already
// present — the precondition check in ApplyPrivilegeDiffs.
func RowAlreadyExists(db, user string) *Error {
	return newError("diff_does_not_apply", "privilege row (%s, %s) already exists", db, user)
}

// RowDoesNotExist reports a Modified/Deleted diff whose (database, user) row
// is missing.
func RowDoesNotExist(db, user string) *Error {
	return newError("diff_does_not_apply", "privilege row (%s, %s) does not exist", db, user)
}

// RowPrivilegeChangeDoesNotApply reports a Modified diff whose requested
// YesToNo/NoToYes transitions do not match the row's current values.
func RowPrivilegeChangeDoesNotApply(db, user string) *Error {
	return newError("diff_does_not_apply", "requested privilege change for (%s, %s) does not match current state", db, user)
}

// MySQLError wraps an opaque underlying database/driver failure. The
// message is never more specific than what the driver returned: the broker
// does not attempt to parse or categorize engine errors beyond this.
func MySQLError(err error) *Error {
	return newError("mysql_error", "%s", err.Error())
}
