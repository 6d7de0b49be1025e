package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/students-gateway/gateway/core/user"
)

// pgUniqueViolation is the postgres error code of unique constraint violations.
const pgUniqueViolation = "23505"

type (
	userRepository struct {
		db *sqlx.DB
	}

	userRow struct {
		Username     string      `db:"username"`
		Name         string      `db:"name"`
		Email        null.String `db:"email"`
		Role         string      `db:"role"`
		PushToken    null.String `db:"push_token"`
		PasswordHash string      `db:"password_hash"`
		Salt         string      `db:"salt"`
	}
)

var _ user.Repository = (*userRepository)(nil) // interface compliance check

const userColumns = `username, name, email, role, push_token, password_hash, salt`

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		Username:     usr.Username,
		Name:         usr.Name,
		Email:        null.NewString(usr.Email, usr.Email != ""),
		Role:         usr.Role,
		PushToken:    null.NewString(usr.PushToken, usr.PushToken != ""),
		PasswordHash: usr.PasswordHash,
		Salt:         usr.Salt,
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	return user.User{
		Username:     row.Username,
		Name:         row.Name,
		Email:        row.Email.String,
		Role:         row.Role,
		PushToken:    row.PushToken.String,
		PasswordHash: row.PasswordHash,
		Salt:         row.Salt,
	}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO "user" (` + userColumns + `)
		VALUES (:username, :name, :email, :role, :push_token, :password_hash, :salt)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.toRow(usr)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, username string) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE username = $1`
	if err := repo.db.GetContext(ctx, &row, q, username); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, usernames []string) ([]user.User, error) {
	if len(usernames) == 0 {
		return []user.User{}, nil
	}
	q, args, err := sqlx.In(`SELECT `+userColumns+` FROM "user" WHERE username IN (?)`, usernames)
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET name = :name, email = :email, role = :role, push_token = :push_token,
		password_hash = :password_hash, salt = :salt WHERE username = :username`
	res, err := repo.db.NamedExecContext(ctx, q, repo.toRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	} else if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
