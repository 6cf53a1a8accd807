// Package session implements the per-connection state machine: recover the
// caller's identity from the socket's peer credential, announce readiness,
// then loop reading requests and dispatching them to the SQL adapter until
// the client disconnects or asks to exit.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"mysqladm/identity"
	"mysqladm/pkg/logger"
	"mysqladm/privilege"
	"mysqladm/protocol"
	"mysqladm/sqladapter"
	"mysqladm/validation"

	"github.com/gravitational/trace"
	"gorm.io/gorm"
)

// Handle runs the full session state machine for one accepted connection:
// Accept (peer UID → identity), Ready, Loop (read request, dispatch, write
// response), Exit. It returns once the client disconnects, asks to exit, or
// a transport-level error makes the connection unusable. dbTimeout bounds
// how long Ready waits to acquire a connection from the shared pool.
func Handle(conn *net.UnixConn, db *gorm.DB, denylist identity.Denylist, dbTimeout time.Duration) error {
	defer conn.Close()

	wire := protocol.NewConn(conn)

	uid, err := identity.PeerUID(conn)
	if err != nil {
		writeErrorResponse(wire, "recover peer credential")
		return trace.Wrap(err, "recover peer credential")
	}

	id, err := identity.FromUID(uid)
	if err != nil {
		writeErrorResponse(wire, fmt.Sprintf("resolve identity for uid %d", uid))
		return trace.Wrap(err, "resolve identity for uid %d", uid)
	}

	logger.Infof("accepted connection from %s", id)
	defer logger.Infof("finished session for %s", id)

	sessionConn, err := acquireConnection(db, dbTimeout)
	if err != nil {
		writeErrorResponse(wire, "acquire database connection")
		return trace.Wrap(err, "acquire database connection")
	}
	defer sessionConn.Close()

	if err := wire.WriteResponse(protocol.ReadyResponse{}); err != nil {
		return trace.Wrap(err, "send ready")
	}

	adapter := sqladapter.New(db, denylist)

	for {
		req, err := wire.ReadRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Warnf("%s disconnected without sending Exit", id)
				return nil
			}
			return trace.Wrap(err, "read request")
		}

		logger.Debugf("received request from %s: %s", id, describeRequest(req))

		if _, ok := req.(protocol.ExitRequest); ok {
			return nil
		}

		resp := dispatch(adapter, id, req, denylist)

		if err := wire.WriteResponse(resp); err != nil {
			return trace.Wrap(err, "write response")
		}
	}
}

// acquireConnection checks out one connection from the shared pool within
// dbTimeout, the Ready step's precondition: a session that cannot get a
// connection must fail fast rather than hang waiting on the pool.
func acquireConnection(db *gorm.DB, dbTimeout time.Duration) (*sql.Conn, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return sqlDB.Conn(ctx)
}

// writeErrorResponse best-effort sends a generic Error response before a
// session that failed during Accept or Ready closes the connection; the
// write error, if any, is not itself actionable since the connection is
// already on its way out.
func writeErrorResponse(wire *protocol.Conn, message string) {
	_ = wire.WriteResponse(protocol.ErrorResponse{Message: message})
}

// describeRequest renders a request for the debug log, redacting the
// PasswdUser password argument.
func describeRequest(req protocol.Request) string {
	if p, ok := req.(protocol.PasswdUserRequest); ok {
		return fmt.Sprintf("PasswdUser{User: %q, Password: %s}", p.User, logger.Password(p.Password))
	}
	return fmt.Sprintf("%#v", req)
}

func dispatch(a *sqladapter.Adapter, id identity.Identity, req protocol.Request, denylist identity.Denylist) protocol.Response {
	switch r := req.(type) {
	case protocol.CheckAuthorizationRequest:
		return checkAuthorization(id, r, denylist)
	case protocol.ListValidNamePrefixesRequest:
		return protocol.ListValidNamePrefixesResponse{Prefixes: validation.ValidNamePrefixes(id, denylist)}
	case protocol.CompleteDatabaseNameRequest:
		return protocol.CompleteDatabaseNameResponse{Names: a.CompleteDatabaseName(id, r.Partial)}
	case protocol.CompleteUserNameRequest:
		return protocol.CompleteUserNameResponse{Names: a.CompleteUserName(id, r.Partial)}

	case protocol.CreateDatabasesRequest:
		return protocol.CreateDatabasesResponse{Results: protocol.FailuresFromErrors(a.CreateDatabases(id, r.Names))}
	case protocol.DropDatabasesRequest:
		return protocol.DropDatabasesResponse{Results: protocol.FailuresFromErrors(a.DropDatabases(id, r.Names))}
	case protocol.ListDatabasesRequest:
		return listDatabases(a, id, r)

	case protocol.ListPrivilegesRequest:
		return listPrivileges(a, id, r)
	case protocol.ModifyPrivilegesRequest:
		return modifyPrivileges(a, id, r)

	case protocol.CreateUsersRequest:
		return protocol.CreateUsersResponse{Results: protocol.FailuresFromErrors(a.CreateUsers(id, r.Names))}
	case protocol.DropUsersRequest:
		return protocol.DropUsersResponse{Results: protocol.FailuresFromErrors(a.DropUsers(id, r.Names))}
	case protocol.PasswdUserRequest:
		return protocol.PasswdUserResponse{Failure: protocol.NewFailure(a.SetPassword(id, r.User, r.Password))}
	case protocol.ListUsersRequest:
		return listUsers(a, id, r)
	case protocol.LockUsersRequest:
		return protocol.LockUsersResponse{Results: protocol.FailuresFromErrors(a.LockUsers(id, r.Names))}
	case protocol.UnlockUsersRequest:
		return protocol.UnlockUsersResponse{Results: protocol.FailuresFromErrors(a.UnlockUsers(id, r.Names))}

	default:
		return protocol.ErrorResponse{Message: fmt.Sprintf("unsupported request %T", req)}
	}
}

func checkAuthorization(id identity.Identity, r protocol.CheckAuthorizationRequest, denylist identity.Denylist) protocol.Response {
	results := make(map[string]protocol.Failure, len(r.Checks))
	for _, c := range r.Checks {
		kind := validation.KindDatabase
		if c.Kind == "user" {
			kind = validation.KindUser
		}
		err := validation.ValidateDBOrUserRequest(c.Name, kind, id, denylist, validation.ResolveGID)
		results[c.Name] = protocol.NewFailure(err)
	}
	return protocol.CheckAuthorizationResponse{Results: results}
}

func listDatabases(a *sqladapter.Adapter, id identity.Identity, r protocol.ListDatabasesRequest) protocol.Response {
	if r.Names == nil {
		owned, err := a.ListAllOwnedDatabases(id)
		if err != nil {
			return protocol.ErrorResponse{Message: err.Error()}
		}
		rows := make([]protocol.DatabaseRowWire, len(owned))
		for i, row := range owned {
			rows[i] = protocol.DatabaseRowWire{Database: row.Database}
		}
		return protocol.ListAllDatabasesResponse{Databases: rows}
	}

	outcomes := a.ListDatabases(id, r.Names)
	results := make(map[string]protocol.Result[protocol.DatabaseRowWire], len(outcomes))
	for name, o := range outcomes {
		if o.Err != nil {
			results[name] = protocol.Fail[protocol.DatabaseRowWire](o.Err)
			continue
		}
		results[name] = protocol.Ok(protocol.DatabaseRowWire{Database: o.Value.Database})
	}
	return protocol.ListDatabasesResponse{Results: results}
}

func listPrivileges(a *sqladapter.Adapter, id identity.Identity, r protocol.ListPrivilegesRequest) protocol.Response {
	if r.Names == nil {
		rows, err := a.ReadAllOwnedPrivileges(id)
		if err != nil {
			return protocol.ErrorResponse{Message: err.Error()}
		}
		return protocol.ListAllPrivilegesResponse{Rows: rows}
	}

	results := make(map[string]protocol.Result[[]privilege.Row], len(r.Names))
	for _, database := range r.Names {
		rows, err := a.ReadPrivilegesForDatabase(id, database)
		if err != nil {
			results[database] = protocol.Fail[[]privilege.Row](err)
			continue
		}
		results[database] = protocol.Ok(rows)
	}
	return protocol.ListPrivilegesResponse{Results: results}
}

func modifyPrivileges(a *sqladapter.Adapter, id identity.Identity, r protocol.ModifyPrivilegesRequest) protocol.Response {
	diffs := make(map[privilege.Key]privilege.Diffs, len(r.Diffs))
	order := make([]privilege.Key, 0, len(r.Diffs))
	for _, w := range r.Diffs {
		key, diff, err := w.FromWire()
		if err != nil {
			return protocol.ErrorResponse{Message: err.Error()}
		}
		diffs[key] = diff
		order = append(order, key)
	}

	errs := a.ApplyPrivilegeDiffs(id, diffs)
	results := make(map[string]protocol.Failure, len(errs))
	for _, key := range order {
		results[keyString(key)] = protocol.NewFailure(errs[key])
	}
	return protocol.ModifyPrivilegesResponse{Results: results}
}

func listUsers(a *sqladapter.Adapter, id identity.Identity, r protocol.ListUsersRequest) protocol.Response {
	if r.Names == nil {
		owned, err := a.ListAllOwnedUsers(id)
		if err != nil {
			return protocol.ErrorResponse{Message: err.Error()}
		}
		users := make([]protocol.DatabaseUserWire, len(owned))
		for i, u := range owned {
			users[i] = wireUser(u)
		}
		return protocol.ListAllUsersResponse{Users: users}
	}

	outcomes := a.ListUsers(id, r.Names)
	results := make(map[string]protocol.Result[protocol.DatabaseUserWire], len(outcomes))
	for name, o := range outcomes {
		if o.Err != nil {
			results[name] = protocol.Fail[protocol.DatabaseUserWire](o.Err)
			continue
		}
		results[name] = protocol.Ok(wireUser(o.Value))
	}
	return protocol.ListUsersResponse{Results: results}
}

func wireUser(u sqladapter.DatabaseUser) protocol.DatabaseUserWire {
	return protocol.DatabaseUserWire{
		User:        u.User,
		Host:        u.Host,
		HasPassword: u.HasPassword,
		IsLocked:    u.IsLocked,
		Databases:   u.Databases,
	}
}

func keyString(k privilege.Key) string {
	return k.Database + "/" + k.User
}
