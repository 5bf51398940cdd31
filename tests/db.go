package testutil

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/trezcool/goose"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/storage/database"
)

// PrepareDB returns a freshly migrated postgres test database.
// The test is skipped when no database server is listening.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	if os.Getenv("ENV") == "" {
		_ = os.Setenv("ENV", "TEST")
	}
	conf := core.NewConfig()
	if conf.Database.Engine != "postgres" {
		t.Skipf("skipping database test: engine is %q", conf.Database.Engine)
	}
	conn, err := net.DialTimeout("tcp", conf.Database.Address(), time.Second)
	if err != nil {
		t.Skipf("skipping database test: %v", err)
	}
	_ = conn.Close()

	if err = database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("database.CreateIfNotExist() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = goose.RunFS("reset", db.DB, database.MigrationsFS, database.MigrationsDir); err != nil {
		t.Fatalf("resetting database failed: %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("database.Migrate() failed: %v", err)
	}
	return db
}

// MustExec runs the seeding statements in order.
func MustExec(t *testing.T, db *sqlx.DB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seeding %q failed: %v", stmt, err)
		}
	}
}
