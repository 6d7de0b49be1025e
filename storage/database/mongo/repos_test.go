package mongorepos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/students-gateway/gateway/storage/database/dbtest"
)

// testDB returns a fresh database on the server at TEST_MONGO_URI; it is dropped at cleanup.
func testDB(t *testing.T) *mongo.Database {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, uri, 10*time.Second)
	require.NoError(t, err)

	db := client.Database("gateway_test_" + uuid.New().String()[:8])
	require.NoError(t, EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestUserRepository(t *testing.T) {
	dbtest.TestUserRepository(t, NewUserRepository(testDB(t)))
}

func TestGroupRepository(t *testing.T) {
	dbtest.TestGroupRepository(t, NewGroupRepository(testDB(t)))
}

func TestPostRepository(t *testing.T) {
	dbtest.TestPostRepository(t, NewPostRepository(testDB(t)))
}
