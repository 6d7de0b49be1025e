package inmemdb

import (
	"context"

	"github.com/students-gateway/gateway/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.Username]; ok {
		return user.User{}, user.ErrUserExists
	}
	repo.db.table[usr.Username] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[username]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, usernames []string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(usernames))
	seen := make(map[string]bool, len(usernames))
	for _, uname := range usernames {
		if seen[uname] {
			continue
		}
		seen[uname] = true
		if usr, ok := repo.db.table[uname]; ok {
			users = append(users, *usr)
		}
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.Username]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.Username] = &usr
	return usr, nil
}
