package notification

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/post"
	"github.com/students-gateway/gateway/core/user"
	emailsvc "github.com/students-gateway/gateway/services/email"
	pushsvc "github.com/students-gateway/gateway/services/push"
	"github.com/students-gateway/gateway/tests"
)

type fixture struct {
	svc   *Service
	push  *pushsvc.ServiceMock
	email *emailsvc.ConsoleServiceMock
	repos testutil.Repos
	grp   group.Group
}

func setup(t *testing.T) fixture {
	t.Helper()
	goFunc = func(f func()) { f() }
	t.Cleanup(func() { goFunc = func(f func()) { go f() } })

	ctx := context.Background()
	repos := testutil.NewRepos()
	logger := testutil.NewLogger()

	bob := testutil.CreateUser(t, repos.Users, "bob", "Bob", user.RoleStudent, "pwd")
	bob.PushToken = "ExponentPushToken[bob]"
	bob.Email = "bob@example.com"
	_, err := repos.Users.UpdateUser(ctx, bob)
	require.NoError(t, err)

	alice := testutil.CreateUser(t, repos.Users, "alice", "Alice", user.RoleStudent, "pwd")
	alice.Email = "alice@example.com"
	_, err = repos.Users.UpdateUser(ctx, alice)
	require.NoError(t, err)

	testutil.CreateUser(t, repos.Users, "carol", "Carol", user.RoleStudent, "pwd")
	testutil.CreateUser(t, repos.Users, "admin", "Admin", user.RoleAdmin, "pwd")

	grp := testutil.CreateGroup(t, repos.Groups, "Grade 5", []string{"admin"}, []string{"bob", "alice", "carol", "ghost"})

	push := pushsvc.NewServiceMock()
	email := emailsvc.NewConsoleServiceMock(testutil.NewConfig(), logger)
	return fixture{
		svc:   NewService(repos.Posts, repos.Groups, repos.Users, push, email, logger, time.Second),
		push:  push,
		email: email,
		repos: repos,
		grp:   grp,
	}
}

func TestService_Notify(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tests := []struct {
		name   string
		tokens []string
		accept bool
		want   bool
		sent   int
	}{
		{name: "no tokens", tokens: nil, accept: true, want: false},
		{name: "blank tokens", tokens: []string{" ", ""}, accept: true, want: false},
		{name: "accepted", tokens: []string{"a", " b "}, accept: true, want: true, sent: 1},
		{name: "rejected", tokens: []string{"a"}, accept: false, want: false, sent: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.push = pushsvc.NewServiceMock()
			f.push.Accept = tt.accept
			f.svc.push = f.push

			assert.Equal(t, tt.want, f.svc.Notify(ctx, tt.tokens, "title", "body"))
			assert.Len(t, f.push.Sent(), tt.sent)
		})
	}

	sent := f.push.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, core.PushMessage{Tokens: []string{"a"}, Title: "title", Body: "body"}, sent[0])
}

func TestService_NotifyPost(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	due := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC).Unix()
	location := "Main hall"
	pst := testutil.CreatePost(t, f.repos.Posts, f.grp.ID, "admin", "Assembly", 100, true)
	_, err := f.repos.Posts.UpdatePost(ctx, pst.ID, post.Patch{
		Location: post.Set(location),
		DateDue:  post.Set(due),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.NotifyPost(ctx, pst.ID))

	pushed := f.push.Sent()
	require.Len(t, pushed, 1)
	assert.Equal(t, []string{"ExponentPushToken[bob]"}, pushed[0].Tokens)
	assert.Equal(t, "Assembly", pushed[0].Title)

	emails := f.email.Sent()
	require.Len(t, emails, 1)
	msg := emails[0]
	assert.Empty(t, msg.To)
	assert.Equal(t, []mail.Address{{Name: "Alice", Address: "alice@example.com"}}, msg.Bcc)
	assert.Equal(t, "Assembly", msg.Subject)
	assert.Contains(t, msg.TextContent, "Grade 5: Assembly")
	assert.Contains(t, msg.TextContent, "Location: Main hall")
	assert.Contains(t, msg.TextContent, "Due: Mon 02 Mar 2026, 14:30")
	assert.Contains(t, msg.TextContent, "Please open the app to acknowledge")
	assert.Contains(t, msg.HTMLContent, "<strong>Location:</strong> Main hall")
}

func TestService_NotifyPostNoRecipients(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	grp := testutil.CreateGroup(t, f.repos.Groups, "Empty", []string{"admin"}, []string{"carol"})
	pst := testutil.CreatePost(t, f.repos.Posts, grp.ID, "admin", "Nobody", 100, false)

	require.NoError(t, f.svc.NotifyPost(ctx, pst.ID))
	assert.Empty(t, f.push.Sent())
	assert.Empty(t, f.email.Sent())
}

func TestService_NotifyPostErrors(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	err := f.svc.NotifyPost(ctx, "missing")
	assert.Equal(t, post.ErrNotFound, err)

	orphan := testutil.CreatePost(t, f.repos.Posts, "missing", "admin", "Orphan", 100, false)
	err = f.svc.NotifyPost(ctx, orphan.ID)
	assert.Equal(t, group.ErrNotFound, err)

	assert.Empty(t, f.push.Sent())
	assert.Empty(t, f.email.Sent())
}
