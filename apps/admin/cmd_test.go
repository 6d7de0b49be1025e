package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/user"
	"github.com/students-gateway/gateway/storage/database"
	"github.com/students-gateway/gateway/tests"
)

func setup(t *testing.T) (*commandLine, testutil.Repos) {
	t.Helper()
	repos := testutil.NewRepos()
	logger := testutil.NewLogger()

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	return &commandLine{
		usrSvc:   user.NewService(repos.Users, logger),
		grpSvc:   group.NewService(repos.Groups, logger),
		validate: validate,
		sqlDB:    &sql.DB{},
	}, repos
}

func mockPassword(t *testing.T, pwd string) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = term.ReadPassword })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}
	defer func() { gooseRunFunc = database.Migrate }()

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "post_index", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("not postgres", func(t *testing.T) {
		cli.sqlDB = nil
		assert.Equal(t, errNoSQLDatabase, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, repos := setup(t)
	testutil.CreateUser(t, repos.Users, "hero", "Hero", user.RoleStudent, "pwd")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-u", "new", "-n", "New"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "--lol"}, wantErrStr: "unknown flag: --lol"},
		{name: "weak password", args: []string{"adduser", "-u", "new", "-n", "New"}, pwd: "12345678"},
		{name: "invalid role", args: []string{"adduser", "-u", "new", "-n", "New", "-r", "teacher"}, pwd: "Tr0ub4dor&3"},
		{name: "duplicate", args: []string{"adduser", "-u", "Hero", "-n", "Hero"}, pwd: "Tr0ub4dor&3", wantErr: user.ErrUserExists},
		{name: "created", args: []string{"adduser", "-u", "Boss", "-n", "The Boss", "-r", "admin", "-e", "boss@test.cd"}, pwd: "Tr0ub4dor&3"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(t, tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch tt.name {
			case "weak password", "invalid role":
				var vErrs validator.ValidationErrors
				assert.True(t, errors.As(err, &vErrs), "validation error expected, got %v", err)
			default:
				tt.check(t, err)
			}
		})
	}

	usr, err := repos.Users.GetUser(context.Background(), "boss")
	require.NoError(t, err)
	assert.Equal(t, user.User{
		Username:     "boss",
		Name:         "The Boss",
		Email:        "boss@test.cd",
		Role:         user.RoleAdmin,
		PasswordHash: usr.PasswordHash,
		Salt:         usr.Salt,
	}, usr)
	assert.True(t, usr.CheckPassword("Tr0ub4dor&3"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, repos := setup(t)
	usr := testutil.CreateUser(t, repos.Users, "awe", "Awesome User", user.RoleStudent, "mdr")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-u", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-u", "lol"}, pwd: "Tr0ub4dor&3", wantErr: user.ErrNotFound},
		{name: "password too similar", args: []string{"resetpassword", "-u", usr.Username}, pwd: "awesomeuser",
			wantErrStr: "password cannot be similar to user attributes"},
		{name: "reset with username", args: []string{"resetpassword", "--username", usr.Username}, pwd: "Tr0ub4dor&3"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(t, tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	refreshedUsr, err := repos.Users.GetUser(context.Background(), usr.Username)
	require.NoError(t, err)
	assert.NotEqual(t, usr.PasswordHash, refreshedUsr.PasswordHash, "failed to update new password")
	assert.True(t, refreshedUsr.CheckPassword("Tr0ub4dor&3"))
}

func Test_commandLine_seed(t *testing.T) {
	cli, repos := setup(t)
	testutil.CreateUser(t, repos.Users, "admin", "Existing Admin", user.RoleAdmin, "pwd")

	dir := t.TempDir()
	fixturePath := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(fixturePath, []byte(`
users:
  - username: admin
    name: Head Teacher
    role: admin
    password: Tr0ub4dor&3
  - username: Hero
    name: Hero
    email: hero@test.cd
    role: student
    password: c0rrect-h0rse
groups:
  - name: Grade 5
    owners: [admin]
    members: [hero, ndog]
`), 0o600))
	invalidPath := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalidPath, []byte("users: {"), 0o600))

	tests := []cliTest{
		{name: "no args", args: []string{"seed"}, wantErr: errHelp},
		{name: "missing file", args: []string{"seed", "-f", filepath.Join(dir, "lol.yaml")}, wantErr: os.ErrNotExist},
		{name: "seeded", args: []string{"seed", "-f", fixturePath}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr == os.ErrNotExist {
				assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
				return
			}
			tt.check(t, err)
		})
	}
	assert.Error(t, cli.run([]string{"admin", "seed", "-f", invalidPath}))

	admin, err := repos.Users.GetUser(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "Existing Admin", admin.Name, "existing users are skipped")

	hero, err := repos.Users.GetUser(context.Background(), "hero")
	require.NoError(t, err)
	assert.True(t, hero.CheckPassword("c0rrect-h0rse"))

	groups, err := repos.Groups.QueryGroups(context.Background(), group.QueryFilter{User: "ndog"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Grade 5", groups[0].Name)
	assert.Equal(t, []string{"hero", "ndog"}, groups[0].Members)
}

func Test_commandLine_subcommandUsage(t *testing.T) {
	cli, _ := setup(t)
	mockPassword(t, "")

	tests := []cliTest{
		{name: "adduser without flags", args: []string{"adduser"}, wantErr: errHelp},
		{name: "adduser with empty password", args: []string{"adduser", "-u", "new", "-n", "New"}, wantErr: errHelp},
		{name: "resetpassword without flags", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "resetpassword with empty password", args: []string{"resetpassword", "-u", "new"}, wantErr: errHelp},
		{name: "seed without flags", args: []string{"seed"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { err = cli.run(args) })
			tt.check(t, err)
		})
	}
}

func Test_newFlagSet(t *testing.T) {
	fs := newFlagSet("seed", "seed -f FILE.yaml")
	fs.StringP("file", "f", "", "The YAML fixture file.")

	var buf bytes.Buffer
	fs.SetOutput(&buf)

	require.NotNil(t, fs.Usage)
	fs.Usage()
	assert.Contains(t, buf.String(), "-f, --file string")
	assert.Contains(t, buf.String(), "The YAML fixture file.")
}
