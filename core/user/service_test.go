package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/students-gateway/gateway/core/user"
	"github.com/students-gateway/gateway/tests"
)

// readOnlyRepo fails the test on any write.
type readOnlyRepo struct {
	user.Repository
	t *testing.T
}

func (r readOnlyRepo) CreateUser(context.Context, user.User) (user.User, error) {
	r.t.Fatal("CreateUser() called")
	return user.User{}, nil
}

func (r readOnlyRepo) UpdateUser(context.Context, user.User) (user.User, error) {
	r.t.Fatal("UpdateUser() called")
	return user.User{}, nil
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos()
	svc := user.NewService(repos.Users, testutil.NewLogger())

	tests := []struct {
		name    string
		nu      user.NewUser
		want    bool
		wantErr error
	}{
		{
			name: "admin",
			nu:   user.NewUser{Username: " Admin ", Name: "Head", Password: "pwd", Role: "admin"},
			want: true,
		},
		{
			name: "student",
			nu:   user.NewUser{Username: "bob", Name: "Bob", Password: "pwd", Role: "Student"},
			want: true,
		},
		{
			name:    "invalid role",
			nu:      user.NewUser{Username: "carol", Name: "Carol", Password: "pwd", Role: "teacher"},
			wantErr: user.ErrInvalidRole,
		},
		{
			name:    "duplicate",
			nu:      user.NewUser{Username: "bob", Name: "Bob 2", Password: "pwd", Role: "student"},
			wantErr: user.ErrUserExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Create(ctx, tt.nu)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}

	usr, err := svc.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Head", usr.Name)
	assert.NotEqual(t, "pwd", usr.PasswordHash)

	bob, err := svc.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, usr.Salt, bob.Salt, "fresh salt per user")

	_, err = svc.GetByUsername(ctx, "carol")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos()
	testutil.CreateUser(t, repos.Users, "admin", "Head", user.RoleAdmin, "pwd")
	svc := user.NewService(readOnlyRepo{Repository: repos.Users, t: t}, testutil.NewLogger())

	tests := []struct {
		name     string
		username string
		password string
		wantOK   bool
		wantRole string
	}{
		{name: "unknown user", username: "nobody", password: "pwd"},
		{name: "wrong password", username: "admin", password: "nope"},
		{name: "valid", username: "admin", password: "pwd", wantOK: true, wantRole: user.RoleAdmin},
		{name: "username is cleaned", username: " ADMIN ", password: "pwd", wantOK: true, wantRole: user.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, role, err := svc.Authenticate(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}

func TestService_DisplayNames(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos()
	testutil.CreateUser(t, repos.Users, "admin", "Head", user.RoleAdmin, "pwd")
	testutil.CreateUser(t, repos.Users, "bob", "Bob", user.RoleStudent, "pwd")
	svc := user.NewService(repos.Users, testutil.NewLogger())

	names, err := svc.DisplayNames(ctx, []string{"admin", "bob", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"admin": "Head", "bob": "Bob"}, names)
}

func TestService_SetPushToken(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos()
	testutil.CreateUser(t, repos.Users, "bob", "Bob", user.RoleStudent, "pwd")
	svc := user.NewService(repos.Users, testutil.NewLogger())

	assert.True(t, svc.SetPushToken(ctx, "bob", " ExponentPushToken[x] "))
	assert.False(t, svc.SetPushToken(ctx, "ghost", "ExponentPushToken[x]"))

	usr, err := svc.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[x]", usr.PushToken)
}

func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos()
	testutil.CreateUser(t, repos.Users, "bob", "Bob", user.RoleStudent, "old")
	svc := user.NewService(repos.Users, testutil.NewLogger())

	require.NoError(t, svc.ResetPassword(ctx, "bob", "new"))
	assert.Equal(t, user.ErrNotFound, svc.ResetPassword(ctx, "ghost", "new"))

	ok, _, err := svc.Authenticate(ctx, "bob", "old")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, _, err = svc.Authenticate(ctx, "bob", "new")
	require.NoError(t, err)
	assert.True(t, ok)
}
