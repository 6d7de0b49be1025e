// Package dbtest holds the behavior every storage engine must share.
// Each engine's tests run these suites against an empty database.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/post"
	"github.com/students-gateway/gateway/core/user"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

func TestUserRepository(t *testing.T, repo user.Repository) {
	ctx := context.Background()
	usr := user.User{Username: "alice", Name: "Alice", Role: user.RoleStudent}
	require.NoError(t, usr.SetPassword("secret"))

	_, err := repo.CreateUser(ctx, usr)
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, usr)
	assert.Equal(t, user.ErrUserExists, err, "duplicate username")

	got, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, usr, got)

	_, err = repo.GetUser(ctx, "nobody")
	assert.Equal(t, user.ErrNotFound, err)

	usr.PushToken = "ExponentPushToken[abc]"
	_, err = repo.UpdateUser(ctx, usr)
	require.NoError(t, err)
	got, err = repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[abc]", got.PushToken)

	_, err = repo.UpdateUser(ctx, user.User{Username: "nobody"})
	assert.Equal(t, user.ErrNotFound, err)

	users, err := repo.QueryUsers(ctx, []string{"alice", "nobody"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	users, err = repo.QueryUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestGroupRepository(t *testing.T, repo group.Repository) {
	ctx := context.Background()

	maths, err := repo.CreateGroup(ctx, group.Group{Name: "Maths Club", Owners: []string{"admin"}, Members: []string{"bob", "alice"}})
	require.NoError(t, err)
	require.NotEmpty(t, maths.ID)
	chess, err := repo.CreateGroup(ctx, group.Group{Name: "Chess Club", Owners: []string{"teacher"}, Members: []string{}})
	require.NoError(t, err)

	got, err := repo.GetGroup(ctx, maths.ID)
	require.NoError(t, err)
	assert.Equal(t, maths, got)
	_, err = repo.GetGroup(ctx, "missing")
	assert.Equal(t, group.ErrNotFound, err)

	t.Run("GroupIDsWithUser", func(t *testing.T) {
		ids, err := repo.GroupIDsWithUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{maths.ID}, ids)

		ids, err = repo.GroupIDsWithUser(ctx, "teacher")
		require.NoError(t, err)
		assert.Equal(t, []string{chess.ID}, ids)

		ids, err = repo.GroupIDsWithUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("QueryGroups", func(t *testing.T) {
		tests := []struct {
			name   string
			filter group.QueryFilter
			want   []string
		}{
			{name: "all, by name", filter: group.QueryFilter{}, want: []string{"Chess Club", "Maths Club"}},
			{name: "ids", filter: group.QueryFilter{IDs: []string{maths.ID}}, want: []string{"Maths Club"}},
			{name: "no ids", filter: group.QueryFilter{IDs: []string{}}, want: []string{}},
			{name: "owner", filter: group.QueryFilter{Owner: "admin"}, want: []string{"Maths Club"}},
			{name: "user", filter: group.QueryFilter{User: "bob"}, want: []string{"Maths Club"}},
			{name: "search", filter: group.QueryFilter{Search: "chess"}, want: []string{"Chess Club"}},
			{name: "search any term", filter: group.QueryFilter{Search: "chess maths"}, want: []string{"Chess Club", "Maths Club"}},
			{name: "search owned", filter: group.QueryFilter{Owner: "admin", Search: "chess"}, want: []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				groups, err := repo.QueryGroups(ctx, tt.filter)
				require.NoError(t, err)
				names := make([]string, 0, len(groups))
				for _, g := range groups {
					names = append(names, g.Name)
				}
				assert.Equal(t, tt.want, names)
			})
		}
	})

	t.Run("UpdateGroup", func(t *testing.T) {
		n, err := repo.UpdateGroup(ctx, chess.ID, group.Patch{Name: strPtr("Chess Club")})
		require.NoError(t, err)
		assert.Zero(t, n, "unchanged name")

		n, err = repo.UpdateGroup(ctx, chess.ID, group.Patch{Name: strPtr("Chess"), Members: []string{"carol"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.GetGroup(ctx, chess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Chess", got.Name)
		assert.Equal(t, []string{"teacher"}, got.Owners)
		assert.Equal(t, []string{"carol"}, got.Members)

		n, err = repo.UpdateGroup(ctx, "missing", group.Patch{Name: strPtr("x")})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("AddMember keeps duplicates", func(t *testing.T) {
		n, err := repo.AddMember(ctx, maths.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.GetGroup(ctx, maths.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "alice", "bob"}, got.Members)
	})

	t.Run("DeleteGroup", func(t *testing.T) {
		n, err := repo.DeleteGroup(ctx, chess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.DeleteGroup(ctx, chess.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestPostRepository(t *testing.T, repo post.Repository) {
	ctx := context.Background()

	insert := func(title, groupID string, created int64, ackRequired bool) post.Post {
		pst, err := repo.InsertPost(ctx, post.Post{
			Title:                   title,
			Body:                    title + " body",
			GroupID:                 groupID,
			AuthorID:                "admin",
			DateCreated:             created,
			RequiresAcknowledgement: ackRequired,
			Viewed:                  []string{},
			Acknowledged:            []post.Acknowledgement{},
		})
		require.NoError(t, err)
		return pst
	}
	trip := insert("Field trip", "g1", 100, true)
	exam := insert("Exam schedule", "g1", 200, false)
	fair := insert("Science fair", "g2", 200, false)
	_ = insert("Staff meeting", "g3", 300, false)

	got, err := repo.GetPost(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip, got)
	_, err = repo.GetPost(ctx, "missing")
	assert.Equal(t, post.ErrNotFound, err)

	titles := func(posts []post.Post) []string {
		ts := make([]string, 0, len(posts))
		for _, p := range posts {
			ts = append(ts, p.Title)
		}
		return ts
	}

	t.Run("QueryPosts", func(t *testing.T) {
		tests := []struct {
			name        string
			filter      post.QueryFilter
			skip, limit int
			want        []string
		}{
			{name: "newest first", filter: post.QueryFilter{GroupIDs: []string{"g1", "g2"}}, limit: 5,
				want: []string{"Science fair", "Exam schedule", "Field trip"}},
			{name: "skip", filter: post.QueryFilter{GroupIDs: []string{"g1", "g2"}}, skip: 2, limit: 5,
				want: []string{"Field trip"}},
			{name: "limit", filter: post.QueryFilter{GroupIDs: []string{"g1", "g2"}}, limit: 1,
				want: []string{"Science fair"}},
			{name: "no groups", filter: post.QueryFilter{GroupIDs: []string{}}, limit: 5, want: []string{}},
			{name: "search", filter: post.QueryFilter{GroupIDs: []string{"g1", "g2", "g3"}, Search: "fair"}, limit: 5,
				want: []string{"Science fair"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				posts, err := repo.QueryPosts(ctx, tt.filter, tt.skip, tt.limit)
				require.NoError(t, err)
				assert.Equal(t, tt.want, titles(posts))
			})
		}
	})

	t.Run("AddViewer", func(t *testing.T) {
		n, err := repo.AddViewer(ctx, exam.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.AddViewer(ctx, exam.ID, "bob")
		require.NoError(t, err)
		assert.Zero(t, n, "already viewed")

		posts, err := repo.QueryPosts(ctx, post.QueryFilter{GroupIDs: []string{"g1"}, NotViewedBy: "bob"}, 0, 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"Field trip"}, titles(posts))
	})

	t.Run("acknowledgement", func(t *testing.T) {
		n, err := repo.SetResponse(ctx, trip.ID, "bob", true)
		require.NoError(t, err)
		assert.Zero(t, n, "no acknowledgement yet")

		n, err = repo.SeedAcknowledgement(ctx, trip.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		n, err = repo.SeedAcknowledgement(ctx, trip.ID, "bob")
		require.NoError(t, err)
		assert.Zero(t, n, "already seeded")

		n, err = repo.SetResponse(ctx, trip.ID, "bob", false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		n, err = repo.SetResponse(ctx, trip.ID, "bob", false)
		require.NoError(t, err)
		assert.Zero(t, n, "same response")

		got, err := repo.GetPost(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, []post.Acknowledgement{{Username: "bob", Response: boolPtr(false)}}, got.Acknowledged)
	})

	t.Run("UpdatePost", func(t *testing.T) {
		loc := "Gym"
		n, err := repo.UpdatePost(ctx, fair.ID, post.Patch{Title: strPtr("Science fair 2"), Location: post.Set(loc)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.UpdatePost(ctx, fair.ID, post.Patch{Title: strPtr("Science fair 2")})
		require.NoError(t, err)
		assert.Zero(t, n, "unchanged title")

		got, err := repo.GetPost(ctx, fair.ID)
		require.NoError(t, err)
		assert.Equal(t, "Science fair 2", got.Title)
		assert.Equal(t, &loc, got.Location)

		n, err = repo.UpdatePost(ctx, fair.ID, post.Patch{Location: post.Null[string]()})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		got, err = repo.GetPost(ctx, fair.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Location)
	})

	t.Run("DeletePost", func(t *testing.T) {
		n, err := repo.DeletePost(ctx, exam.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.DeletePost(ctx, exam.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
