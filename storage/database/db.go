package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/post"
	"github.com/students-gateway/gateway/core/user"
	appfs "github.com/students-gateway/gateway/fs"
	inmemdb "github.com/students-gateway/gateway/storage/database/inmem"
	mongorepos "github.com/students-gateway/gateway/storage/database/mongo"
	sqlxrepos "github.com/students-gateway/gateway/storage/database/sqlx"
)

const (
	pgDriver      = "postgres"
	migrationsDir = "migrations"
)

// Store holds the repositories of the configured engine. It must be closed at shutdown.
type Store struct {
	Users  user.Repository
	Groups group.Repository
	Posts  post.Repository
	SQL    *sqlx.DB // postgres only

	closeFunc func(ctx context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.closeFunc == nil {
		return nil
	}
	return s.closeFunc(ctx)
}

// Open connects to the configured storage engine.
func Open(ctx context.Context, conf *core.Config) (*Store, error) {
	switch conf.Database.Engine {
	case core.EngineMongo:
		return openMongo(ctx, conf)
	case core.EnginePostgres:
		return openPostgres(ctx, conf)
	case core.EngineInMem:
		db := inmemdb.Open()
		return &Store{
			Users:  inmemdb.NewUserRepository(db),
			Groups: inmemdb.NewGroupRepository(db),
			Posts:  inmemdb.NewPostRepository(db),
		}, nil
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func openMongo(ctx context.Context, conf *core.Config) (*Store, error) {
	client, err := mongorepos.Connect(ctx, conf.Database.URI, conf.Database.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	db := client.Database(conf.Database.Name)
	if err = mongorepos.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ensuring indexes")
	}
	return &Store{
		Users:     mongorepos.NewUserRepository(db),
		Groups:    mongorepos.NewGroupRepository(db),
		Posts:     mongorepos.NewPostRepository(db),
		closeFunc: func(ctx context.Context) error { return disconnect(ctx, client) },
	}, nil
}

func disconnect(ctx context.Context, client *mongo.Client) error {
	return errors.Wrap(client.Disconnect(ctx), "disconnecting from mongo")
}

func openPostgres(ctx context.Context, conf *core.Config) (*Store, error) {
	db, err := OpenSQL(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(ctx, db.DB, conf.Database.Timeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		Users:     sqlxrepos.NewUserRepository(db),
		Groups:    sqlxrepos.NewGroupRepository(db),
		Posts:     sqlxrepos.NewPostRepository(db),
		SQL:       db,
		closeFunc: func(context.Context) error { return db.Close() },
	}, nil
}

func dsn(dbName string, conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   pgDriver,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// OpenSQL opens (without connecting) the configured postgres database.
func OpenSQL(conf *core.Config) (*sqlx.DB, error) {
	return sqlx.Open(pgDriver, dsn(conf.Database.Name, conf))
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var err error
	for attempts := 1; ; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(err, "DB ping timeout")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
}

// CreateIfNotExist creates the configured postgres database.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	db, err := sql.Open(pgDriver, dsn("postgres", conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(ctx, db, conf.Database.Timeout); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	var exists bool
	err = db.QueryRowContext(ctx, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err = db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %q", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

func init() {
	goose.SetBaseFS(appfs.FS)
}

// Migrate runs a goose command (up, down, status, ...) against db.
func Migrate(db *sql.DB, command string, args ...string) error {
	if err := goose.SetDialect(pgDriver); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migration command %q", command)
	}
	return nil
}
