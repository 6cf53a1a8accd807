package sqladapter_test

import (
	"testing"

	"mysqladm/identity"
	"mysqladm/privilege"
	"mysqladm/sqladapter"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// These tests run the adapter against a real (if embedded)
// MySQL-wire-protocol engine instead of mocking *gorm.DB, so the raw SQL in
// database.go/user.go/privilege.go is actually parsed and executed by a SQL
// engine rather than merely exercised against a fake driver.

func TestCreateAndListOwnedDatabases(t *testing.T) {
	db := newFixtureDB(t)
	adapter := sqladapter.New(db, identity.Denylist{})
	alice := identity.Identity{Username: "alice"}

	results := adapter.CreateDatabases(alice, []string{"alice_db1", "bob_db1"})
	require.NoError(t, results["alice_db1"])
	require.Error(t, results["bob_db1"])

	owned, err := adapter.ListAllOwnedDatabases(alice)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, "alice_db1", owned[0].Database)

	again := adapter.CreateDatabases(alice, []string{"alice_db1"})
	require.Error(t, again["alice_db1"])

	dropped := adapter.DropDatabases(alice, []string{"alice_db1"})
	require.NoError(t, dropped["alice_db1"])

	owned, err = adapter.ListAllOwnedDatabases(alice)
	require.NoError(t, err)
	require.Empty(t, owned)
}

// user.go's CreateUsers/LockUsers/UnlockUsers issue real CREATE USER/ALTER
// USER ... ACCOUNT LOCK DDL, which a MySQL-compatible engine routes through
// its own built-in account-management subsystem rather than through
// whatever table happens to be named mysql.user in a user-provided
// database — so those operations aren't exercised here. See DESIGN.md for
// why this fixture seeds mysql.user/global_priv directly with INSERT
// instead and only exercises the read paths (ListUsers) plus the
// database/privilege operations, which are plain DML/DDL against tables
// this fixture actually owns.
func seedUser(t *testing.T, db *gorm.DB, user string, locked bool) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO `mysql`.`user` (`Host`, `User`, `authentication_string`) VALUES ('%', ?, '')", user,
	).Error)
	priv := `{"account_locked": false}`
	if locked {
		priv = `{"account_locked": true}`
	}
	require.NoError(t, db.Exec(
		"INSERT INTO `mysql`.`global_priv` (`Host`, `User`, `priv`) VALUES ('%', ?, ?)", user, priv,
	).Error)
}

func TestListUsersReportsLockState(t *testing.T) {
	db := newFixtureDB(t)
	seedUser(t, db, "alice_user1", false)
	seedUser(t, db, "alice_user2", true)

	adapter := sqladapter.New(db, identity.Denylist{})
	alice := identity.Identity{Username: "alice"}

	outcomes := adapter.ListUsers(alice, []string{"alice_user1", "alice_user2"})

	out1, ok := outcomes["alice_user1"]
	require.True(t, ok)
	require.NoError(t, out1.Err)
	require.False(t, out1.Value.IsLocked)

	out2, ok := outcomes["alice_user2"]
	require.True(t, ok)
	require.NoError(t, out2.Err)
	require.True(t, out2.Value.IsLocked)
}

func TestApplyPrivilegeDiffsNewThenModified(t *testing.T) {
	db := newFixtureDB(t)
	seedUser(t, db, "alice_user1", false)
	adapter := sqladapter.New(db, identity.Denylist{})
	alice := identity.Identity{Username: "alice"}

	require.NoError(t, adapter.CreateDatabases(alice, []string{"alice_db1"})["alice_db1"])

	row := privilege.Row{Database: "alice_db1", User: "alice_user1", Select: true, Insert: true}
	key := row.Key()

	errs := adapter.ApplyPrivilegeDiffs(alice, map[privilege.Key]privilege.Diffs{
		key: privilege.NewDiffs(row),
	})
	require.NoError(t, errs[key])

	rows, err := adapter.ReadPrivilegesForDatabase(alice, "alice_db1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Select)
	require.False(t, rows[0].Update)

	current, err := adapter.ReadPrivilegesForPair(alice, "alice_db1", "alice_user1")
	require.NoError(t, err)
	require.NotNil(t, current)

	diff := privilege.RowDiffFromRows(*current, privilege.Row{
		Database: "alice_db1", User: "alice_user1", Select: true, Insert: true, Update: true,
	})
	errs = adapter.ApplyPrivilegeDiffs(alice, map[privilege.Key]privilege.Diffs{
		key: privilege.ModifiedDiffs(diff),
	})
	require.NoError(t, errs[key])

	current, err = adapter.ReadPrivilegesForPair(alice, "alice_db1", "alice_user1")
	require.NoError(t, err)
	require.True(t, current.Update)

	// Reapplying the same stale diff must fail: the row no longer matches
	// the diff's "from" precondition.
	errs = adapter.ApplyPrivilegeDiffs(alice, map[privilege.Key]privilege.Diffs{
		key: privilege.ModifiedDiffs(diff),
	})
	require.Error(t, errs[key])
}

func TestApplyPrivilegeDiffsRejectsUnownedUser(t *testing.T) {
	db := newFixtureDB(t)
	adapter := sqladapter.New(db, identity.Denylist{})
	alice := identity.Identity{Username: "alice"}

	require.NoError(t, adapter.CreateDatabases(alice, []string{"alice_db1"})["alice_db1"])

	// alice owns the database but not "root" as a user prefix; the diff must
	// be rejected before any statement touches mysql.db.
	row := privilege.Row{Database: "alice_db1", User: "root", Select: true}
	key := row.Key()

	errs := adapter.ApplyPrivilegeDiffs(alice, map[privilege.Key]privilege.Diffs{
		key: privilege.NewDiffs(row),
	})
	require.Error(t, errs[key])

	rows, err := adapter.ReadPrivilegesForDatabase(alice, "alice_db1")
	require.NoError(t, err)
	require.Empty(t, rows)
}
