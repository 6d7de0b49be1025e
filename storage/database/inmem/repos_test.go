package inmemdb

import (
	"testing"

	"github.com/students-gateway/gateway/storage/database/dbtest"
)

func TestUserRepository(t *testing.T) {
	dbtest.TestUserRepository(t, NewUserRepository(Open()))
}

func TestGroupRepository(t *testing.T) {
	dbtest.TestGroupRepository(t, NewGroupRepository(Open()))
}

func TestPostRepository(t *testing.T) {
	dbtest.TestPostRepository(t, NewPostRepository(Open()))
}
