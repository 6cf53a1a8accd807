package sqladapter_test

import (
	"fmt"
	"net"
	"testing"
	"time"

	sqle "github.com/dolthub/go-mysql-server"
	"github.com/dolthub/go-mysql-server/memory"
	"github.com/dolthub/go-mysql-server/server"
	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// fixtureGrantTables builds the subset of mysql.{user,global_priv,db} this
// broker actually reads and writes, shaped exactly like sqladapter's raw
// SQL expects (same table and column names, TEXT-typed Y/N flags). This
// mirrors the teacher's createPrivilegeTables in shape — one memory.Table
// per grant table, added to a hand-built "mysql" database — generalized
// from the teacher's Oracle/DBF-specific privilege-simulation schema down
// to just the MariaDB grant tables this broker understands.
func fixtureGrantTables() *memory.Database {
	db := memory.NewDatabase("mysql")

	userSchema := sql.NewPrimaryKeySchema(sql.Schema{
		{Name: "Host", Type: types.Text, Source: "user", Nullable: false, PrimaryKey: true},
		{Name: "User", Type: types.Text, Source: "user", Nullable: false, PrimaryKey: true},
		{Name: "authentication_string", Type: types.Text, Source: "user"},
	})
	db.AddTable("user", memory.NewTable(db, "user", userSchema, db.GetForeignKeyCollection()))

	globalPrivSchema := sql.NewPrimaryKeySchema(sql.Schema{
		{Name: "Host", Type: types.Text, Source: "global_priv", Nullable: false, PrimaryKey: true},
		{Name: "User", Type: types.Text, Source: "global_priv", Nullable: false, PrimaryKey: true},
		{Name: "priv", Type: types.Text, Source: "global_priv"},
	})
	db.AddTable("global_priv", memory.NewTable(db, "global_priv", globalPrivSchema, db.GetForeignKeyCollection()))

	dbSchema := sql.NewPrimaryKeySchema(sql.Schema{
		{Name: "Host", Type: types.Text, Source: "db", Nullable: false, PrimaryKey: true},
		{Name: "Db", Type: types.Text, Source: "db", Nullable: false, PrimaryKey: true},
		{Name: "User", Type: types.Text, Source: "db", Nullable: false, PrimaryKey: true},
		{Name: "select_priv", Type: types.Text, Source: "db"},
		{Name: "insert_priv", Type: types.Text, Source: "db"},
		{Name: "update_priv", Type: types.Text, Source: "db"},
		{Name: "delete_priv", Type: types.Text, Source: "db"},
		{Name: "create_priv", Type: types.Text, Source: "db"},
		{Name: "drop_priv", Type: types.Text, Source: "db"},
		{Name: "alter_priv", Type: types.Text, Source: "db"},
		{Name: "index_priv", Type: types.Text, Source: "db"},
		{Name: "create_tmp_table_priv", Type: types.Text, Source: "db"},
		{Name: "lock_tables_priv", Type: types.Text, Source: "db"},
		{Name: "references_priv", Type: types.Text, Source: "db"},
	})
	db.AddTable("db", memory.NewTable(db, "db", dbSchema, db.GetForeignKeyCollection()))

	return db
}

// freePort mirrors the teacher's GetFreePort: bind a TCP listener to port 0
// and report whatever the kernel handed back, so each fixture server in a
// test run gets its own address.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// newFixtureDB stands up an in-memory MySQL-wire-protocol-compatible server
// seeded with the broker's grant tables, following the teacher's
// NewPrivilegeSession shape (memory provider, sqle.NewDefault engine,
// server.NewServer over a free TCP port), and returns a *gorm.DB connected
// to it exactly the way config.ConnectDB would connect to a real server.
// Each test's session ID keeps log lines and the eventual t.Name()
// correlation distinguishable when tests run in parallel.
func newFixtureDB(t *testing.T) *gorm.DB {
	t.Helper()
	sessionID := uuid.NewString()

	mysqlDB := fixtureGrantTables()
	provider := memory.NewDBProvider(mysqlDB)
	engine := sqle.NewDefault(provider)

	port := freePort(t)
	cfg := server.Config{
		Protocol: "tcp",
		Address:  fmt.Sprintf("127.0.0.1:%d", port),
	}
	srv, err := server.NewServer(cfg, engine, sql.NewContext, memory.NewSessionBuilder(provider), nil)
	require.NoError(t, err)

	go func() {
		_ = srv.Start()
	}()
	t.Cleanup(func() { _ = srv.Close() })

	dsn := fmt.Sprintf("root:@tcp(127.0.0.1:%d)/mysql?parseTime=true&multiStatements=true", port)

	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = gorm.Open(gormmysql.Open(dsn), &gorm.Config{})
		return err == nil
	}, 2*time.Second, 20*time.Millisecond, "fixture server %s did not accept connections in time", sessionID)

	return db
}
