package sqlxrepos_test

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/students-gateway/gateway/storage/database"
	"github.com/students-gateway/gateway/storage/database/dbtest"
	sqlxrepos "github.com/students-gateway/gateway/storage/database/sqlx"
)

// testDB returns the migrated, emptied database at TEST_POSTGRES_DSN.
func testDB(t *testing.T) *sqlx.DB {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db.DB, "up"))
	_, err = db.ExecContext(context.Background(), `TRUNCATE post_acknowledgement, post, "group", "user"`)
	require.NoError(t, err)
	return db
}

func TestUserRepository(t *testing.T) {
	dbtest.TestUserRepository(t, sqlxrepos.NewUserRepository(testDB(t)))
}

func TestGroupRepository(t *testing.T) {
	dbtest.TestGroupRepository(t, sqlxrepos.NewGroupRepository(testDB(t)))
}

func TestPostRepository(t *testing.T) {
	dbtest.TestPostRepository(t, sqlxrepos.NewPostRepository(testDB(t)))
}
