package group_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/tests"
)

func strPtr(s string) *string { return &s }

func setup(t *testing.T) (*group.Service, group.Repository) {
	t.Helper()
	repos := testutil.NewRepos()
	return group.NewService(repos.Groups, testutil.NewLogger()), repos.Groups
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	id, ok := svc.Create(ctx, []string{" Admin "}, "  Grade 5 ", []string{"bob", "", "Alice"})
	require.True(t, ok)

	grp, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, group.Group{
		ID:      id,
		Name:    "Grade 5",
		Owners:  []string{"admin"},
		Members: []string{"bob", "alice"},
	}, grp)

	id, ok = svc.Create(ctx, []string{"admin"}, "Empty", nil)
	require.True(t, ok)
	grp, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{}, grp.Members)

	_, err = svc.Get(ctx, "missing")
	assert.Equal(t, group.ErrNotFound, err)
}

func TestService_GroupsOf(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	g5 := testutil.CreateGroup(t, repo, "Grade 5", []string{"admin"}, []string{"bob"})
	g6 := testutil.CreateGroup(t, repo, "Grade 6", []string{"teacher"}, []string{"bob", "carol"})

	tests := []struct {
		name     string
		username string
		want     []string
	}{
		{name: "owner", username: "admin", want: []string{g5.ID}},
		{name: "member of both", username: "bob", want: []string{g5.ID, g6.ID}},
		{name: "member", username: "carol", want: []string{g6.ID}},
		{name: "outsider", username: "dave", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GroupsOf(ctx, tt.username)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	groups, err := svc.ListForUser(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	grp := testutil.CreateGroup(t, repo, "Grade 5", []string{"admin"}, []string{"bob"})

	tests := []struct {
		name  string
		id    string
		patch group.Patch
		want  bool
	}{
		{name: "empty patch", id: grp.ID, patch: group.Patch{}, want: false},
		{name: "rename", id: grp.ID, patch: group.Patch{Name: strPtr(" Grade 5A ")}, want: true},
		{name: "same name", id: grp.ID, patch: group.Patch{Name: strPtr("Grade 5A")}, want: false},
		{name: "replace members", id: grp.ID, patch: group.Patch{Members: []string{"Carol", "bob"}}, want: true},
		{name: "unknown group", id: "missing", patch: group.Patch{Name: strPtr("x")}, want: false},
		{name: "no owners", id: grp.ID, patch: group.Patch{Owners: []string{}}, want: false},
		{name: "blank owners", id: grp.ID, patch: group.Patch{Owners: []string{" ", ""}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Update(ctx, tt.id, tt.patch))
		})
	}

	got, err := svc.Get(ctx, grp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grade 5A", got.Name)
	assert.Equal(t, []string{"carol", "bob"}, got.Members)
	assert.Equal(t, []string{"admin"}, got.Owners)
}

func TestService_DeleteAndAddMember(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	grp := testutil.CreateGroup(t, repo, "Grade 5", []string{"admin"}, []string{"bob"})

	assert.True(t, svc.AddMember(ctx, grp.ID, "Carol"))
	assert.True(t, svc.AddMember(ctx, grp.ID, "bob"), "duplicates are appended")
	assert.False(t, svc.AddMember(ctx, grp.ID, "  "))
	assert.False(t, svc.AddMember(ctx, "missing", "dave"))

	got, err := svc.Get(ctx, grp.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol", "bob"}, got.Members)

	assert.True(t, svc.Delete(ctx, grp.ID))
	assert.False(t, svc.Delete(ctx, grp.ID))
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	g5 := testutil.CreateGroup(t, repo, "Grade 5 Maths", []string{"admin"}, nil)
	testutil.CreateGroup(t, repo, "Grade 6 Maths", []string{"teacher"}, nil)
	testutil.CreateGroup(t, repo, "Chess Club", []string{"admin"}, nil)

	groups, err := svc.Search(ctx, "admin", "maths")
	require.NoError(t, err)
	require.Len(t, groups, 1, "only owned groups")
	assert.Equal(t, g5.ID, groups[0].ID)

	groups, err = svc.Search(ctx, "admin", "   ")
	require.NoError(t, err)
	assert.Empty(t, groups)

	suggestions, err := svc.Suggest(ctx, "admin", "maths")
	require.NoError(t, err)
	assert.Equal(t, []group.Suggestion{{Label: "Grade 5 Maths", Value: g5.ID}}, suggestions)
}
