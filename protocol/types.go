// Package protocol defines the wire-level Request/Response tagged unions
// exchanged between mysqladmd and its clients over a single UNIX-domain
// socket connection, and the length-delimited framing used to transport
// them.
package protocol

import "mysqladm/privilege"

// Request is implemented by every concrete request variant. isRequest is
// unexported so no type outside this package can satisfy the interface,
// keeping the union closed.
type Request interface {
	isRequest()
}

// Response is implemented by every concrete response variant, closed the
// same way as Request.
type Response interface {
	isResponse()
}

// CreateDatabasesRequest asks the server to create each named database.
type CreateDatabasesRequest struct{ Names []string }

// DropDatabasesRequest asks the server to drop each named database.
type DropDatabasesRequest struct{ Names []string }

// ListDatabasesRequest asks for the named databases' state. A nil Names
// means "every database I own".
type ListDatabasesRequest struct{ Names []string }

// ListPrivilegesRequest asks for privilege rows, scoped to Names if
// non-nil or to every database the caller owns otherwise.
type ListPrivilegesRequest struct{ Names []string }

// ModifyPrivilegesRequest submits a batch of privilege diffs for
// application, keyed by (database, user).
type ModifyPrivilegesRequest struct{ Diffs []DiffWire }

// CreateUsersRequest asks the server to create each named account.
type CreateUsersRequest struct{ Names []string }

// DropUsersRequest asks the server to drop each named account.
type DropUsersRequest struct{ Names []string }

// PasswdUserRequest sets a single account's password. The plaintext
// Password field is redacted by pkg/logger before any log line mentions
// this request.
type PasswdUserRequest struct {
	User     string
	Password string
}

// ListUsersRequest asks for the named accounts' state. A nil Names means
// "every account I own".
type ListUsersRequest struct{ Names []string }

// LockUsersRequest asks the server to lock each named account.
type LockUsersRequest struct{ Names []string }

// UnlockUsersRequest asks the server to unlock each named account.
type UnlockUsersRequest struct{ Names []string }

// NameCheck pairs a candidate name with the kind of object it would name,
// "database" or "user", since the validation rules for the two kinds
// share their shape but not their error wording.
type NameCheck struct {
	Name string
	Kind string
}

// CheckAuthorizationRequest asks, for each name, whether the caller is
// authorized to use it as a database or user name prefix, without
// touching the database.
type CheckAuthorizationRequest struct{ Checks []NameCheck }

// ListValidNamePrefixesRequest asks the server which prefixes (username
// plus eligible groups) the caller may use.
type ListValidNamePrefixesRequest struct{}

// CompleteDatabaseNameRequest asks for owned database names starting with
// Partial, for shell-completion use.
type CompleteDatabaseNameRequest struct{ Partial string }

// CompleteUserNameRequest asks for owned account names starting with
// Partial, for shell-completion use.
type CompleteUserNameRequest struct{ Partial string }

// ExitRequest asks the server to end the session cleanly.
type ExitRequest struct{}

func (CreateDatabasesRequest) isRequest()       {}
func (DropDatabasesRequest) isRequest()         {}
func (ListDatabasesRequest) isRequest()         {}
func (ListPrivilegesRequest) isRequest()        {}
func (ModifyPrivilegesRequest) isRequest()      {}
func (CreateUsersRequest) isRequest()           {}
func (DropUsersRequest) isRequest()             {}
func (PasswdUserRequest) isRequest()            {}
func (ListUsersRequest) isRequest()             {}
func (LockUsersRequest) isRequest()             {}
func (UnlockUsersRequest) isRequest()           {}
func (CheckAuthorizationRequest) isRequest()    {}
func (ListValidNamePrefixesRequest) isRequest() {}
func (CompleteDatabaseNameRequest) isRequest()  {}
func (CompleteUserNameRequest) isRequest()      {}
func (ExitRequest) isRequest()                  {}

// CreateDatabasesResponse reports one Failure (zero value on success) per
// requested name.
type CreateDatabasesResponse struct{ Results map[string]Failure }

// DropDatabasesResponse reports one Failure per requested name.
type DropDatabasesResponse struct{ Results map[string]Failure }

// ListDatabasesResponse reports one Result per requested name.
type ListDatabasesResponse struct{ Results map[string]Result[DatabaseRowWire] }

// ListAllDatabasesResponse lists every database the caller owns.
type ListAllDatabasesResponse struct{ Databases []DatabaseRowWire }

// ListPrivilegesResponse reports one Result per requested database.
type ListPrivilegesResponse struct{ Results map[string]Result[[]privilege.Row] }

// ListAllPrivilegesResponse lists every privilege row the caller owns.
type ListAllPrivilegesResponse struct{ Rows []privilege.Row }

// ModifyPrivilegesResponse reports one Failure per (database, user) key
// submitted in the request, keyed by "database/user".
type ModifyPrivilegesResponse struct{ Results map[string]Failure }

// CreateUsersResponse reports one Failure per requested name.
type CreateUsersResponse struct{ Results map[string]Failure }

// DropUsersResponse reports one Failure per requested name.
type DropUsersResponse struct{ Results map[string]Failure }

// PasswdUserResponse reports the outcome of a single password change.
type PasswdUserResponse struct{ Failure Failure }

// ListUsersResponse reports one Result per requested name.
type ListUsersResponse struct{ Results map[string]Result[DatabaseUserWire] }

// ListAllUsersResponse lists every account the caller owns.
type ListAllUsersResponse struct{ Users []DatabaseUserWire }

// LockUsersResponse reports one Failure per requested name.
type LockUsersResponse struct{ Results map[string]Failure }

// UnlockUsersResponse reports one Failure per requested name.
type UnlockUsersResponse struct{ Results map[string]Failure }

// CheckAuthorizationResponse reports one Failure per requested name.
type CheckAuthorizationResponse struct{ Results map[string]Failure }

// ListValidNamePrefixesResponse lists the caller's allowed name prefixes.
type ListValidNamePrefixesResponse struct{ Prefixes []string }

// CompleteDatabaseNameResponse lists matching owned database names.
type CompleteDatabaseNameResponse struct{ Names []string }

// CompleteUserNameResponse lists matching owned account names.
type CompleteUserNameResponse struct{ Names []string }

// ReadyResponse announces that the session is ready to receive requests.
type ReadyResponse struct{}

// ErrorResponse reports a session-level failure unrelated to any specific
// item in a batch (e.g. a lost database connection).
type ErrorResponse struct{ Message string }

func (CreateDatabasesResponse) isResponse()       {}
func (DropDatabasesResponse) isResponse()         {}
func (ListDatabasesResponse) isResponse()         {}
func (ListAllDatabasesResponse) isResponse()      {}
func (ListPrivilegesResponse) isResponse()        {}
func (ListAllPrivilegesResponse) isResponse()     {}
func (ModifyPrivilegesResponse) isResponse()      {}
func (CreateUsersResponse) isResponse()           {}
func (DropUsersResponse) isResponse()             {}
func (PasswdUserResponse) isResponse()            {}
func (ListUsersResponse) isResponse()             {}
func (ListAllUsersResponse) isResponse()          {}
func (LockUsersResponse) isResponse()             {}
func (UnlockUsersResponse) isResponse()           {}
func (CheckAuthorizationResponse) isResponse()    {}
func (ListValidNamePrefixesResponse) isResponse() {}
func (CompleteDatabaseNameResponse) isResponse()  {}
func (CompleteUserNameResponse) isResponse()      {}
func (ReadyResponse) isResponse()                 {}
func (ErrorResponse) isResponse()                 {}

// DatabaseRowWire is the wire-safe projection of sqladapter.DatabaseRow.
type DatabaseRowWire struct{ Database string }

// DatabaseUserWire is the wire-safe projection of sqladapter.DatabaseUser.
type DatabaseUserWire struct {
	User        string
	Host        string
	HasPassword bool
	IsLocked    bool
	Databases   []string
}
