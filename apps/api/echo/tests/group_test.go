package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/students-gateway/gateway/apps/api/echo"
	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/user"
	"github.com/students-gateway/gateway/tests"
)

func Test_groupApi_create(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.repos.Users, "admin", "Admin", user.RoleAdmin, "pwd")
	student := testutil.CreateUser(t, e.repos.Users, "hero", "Hero", user.RoleStudent, "pwd")
	adminToken := getToken(t, e.conf, admin)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, e.conf, student), body: []byte(`{"name": "G"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: adminToken, body: []byte(`{"name": " "}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "invalid member", token: adminToken, body: []byte(`{"name": "G", "members": ["no spaces"]}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"members[0]": "only letters, digits, dots, dashes and underscores are allowed"}),
		},
		{name: "created", token: adminToken, body: []byte(`{"name": " Grade 5 ", "members": ["Hero", ""]}`), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/groups"

		t.Run(tt.name, func(t *testing.T) {
			rec := e.serve(tt)
			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}

			require.Equal(t, tt.wantCode, rec.Code)
			var res echoapi.ResultResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			require.True(t, res.Success)

			grp, err := e.repos.Groups.GetGroup(context.Background(), res.ID)
			require.NoError(t, err)
			assert.Equal(t, group.Group{ID: res.ID, Name: "Grade 5", Owners: []string{"admin"}, Members: []string{"hero"}}, grp)
		})
	}
}

func Test_groupApi_queryAndSearch(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.repos.Users, "admin", "Admin", user.RoleAdmin, "pwd")
	hero := testutil.CreateUser(t, e.repos.Users, "hero", "Hero", user.RoleStudent, "pwd")
	g5 := testutil.CreateGroup(t, e.repos.Groups, "Grade 5", []string{"admin"}, []string{"hero"})
	g6 := testutil.CreateGroup(t, e.repos.Groups, "Grade 6", []string{"admin"}, []string{})
	chess := testutil.CreateGroup(t, e.repos.Groups, "Chess club", []string{"hero"}, []string{})

	adminToken := getToken(t, e.conf, admin)
	heroToken := getToken(t, e.conf, hero)
	tests := []httpTest{
		{name: "Auth required", path: "/v1/groups", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "user groups", path: "/v1/groups", token: heroToken, wantData: marchallObj(t, []group.Group{chess, g5})},
		{name: "search owned", path: "/v1/groups/search?q=grade", token: adminToken, wantData: marchallObj(t, []group.Group{g5, g6})},
		{name: "search not owned", path: "/v1/groups/search?q=grade", token: heroToken, wantData: marchallObj(t, []group.Group{})},
		{
			name: "suggest", path: "/v1/groups/search?q=chess&suggest=true", token: heroToken,
			wantData: marchallObj(t, []group.Suggestion{{Label: "Chess club", Value: chess.ID}}),
		},
		{name: "blank search", path: "/v1/groups/search?q=+", token: adminToken, wantData: marchallObj(t, []group.Group{})},
		{name: "retrieve", path: "/v1/groups/" + g6.ID, token: heroToken, wantData: marchallObj(t, g6)},
		{
			name: "unknown group", path: "/v1/groups/missing", token: heroToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.serve(tt))
		})
	}
}

func Test_groupApi_updateAndMembers(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.repos.Users, "admin", "Admin", user.RoleAdmin, "pwd")
	grp := testutil.CreateGroup(t, e.repos.Groups, "Grade 5", []string{"admin"}, []string{"hero"})
	pst := testutil.CreatePost(t, e.repos.Posts, grp.ID, "admin", "Trip", 100, false)

	adminToken := getToken(t, e.conf, admin)
	carolToken := getToken(t, e.conf, user.User{Username: "carol", Role: user.RoleStudent})
	detailPath := "/v1/groups/" + grp.ID
	ok := marchallObj(t, echoapi.ResultResponse{Success: true})
	notOK := marchallObj(t, echoapi.ResultResponse{Success: false})

	// steps run in order
	tests := []httpTest{
		{name: "not visible yet", method: http.MethodGet, path: "/v1/posts", token: carolToken, wantData: []byte(`[]`)},
		{name: "add member requires admin", method: http.MethodPost, path: detailPath + "/members", token: carolToken,
			body: []byte(`{"username": "carol"}`), wantCode: http.StatusForbidden},
		{name: "add member", method: http.MethodPost, path: detailPath + "/members", token: adminToken,
			body: []byte(`{"username": "carol"}`), wantData: ok},
		{name: "rename", method: http.MethodPut, path: detailPath, token: adminToken, body: []byte(`{"name": "Grade 5A"}`), wantData: ok},
		{name: "same name", method: http.MethodPut, path: detailPath, token: adminToken, body: []byte(`{"name": "Grade 5A"}`), wantData: notOK},
		{name: "empty patch", method: http.MethodPut, path: detailPath, token: adminToken, body: []byte(`{}`), wantData: notOK},
		{name: "drop every owner", method: http.MethodPut, path: detailPath, token: adminToken, body: []byte(`{"owners": []}`),
			wantCode: http.StatusBadRequest},
		{name: "blank owners", method: http.MethodPut, path: detailPath, token: adminToken, body: []byte(`{"owners": [" "]}`),
			wantCode: http.StatusBadRequest},
		{name: "delete", method: http.MethodDelete, path: detailPath, token: adminToken, wantData: ok},
		{name: "delete again", method: http.MethodDelete, path: detailPath, token: adminToken, wantData: notOK},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.serve(tt))

			if tt.name == "blank owners" {
				got, err := e.grps.Get(context.Background(), grp.ID)
				require.NoError(t, err)
				assert.Equal(t, []string{"admin"}, got.Owners)
			}
			if tt.name == "rename" {
				summaries, err := e.posts.List(context.Background(), "carol", 1, false)
				require.NoError(t, err)
				require.Len(t, summaries, 1)
				assert.Equal(t, pst.ID, summaries[0].ID)
				assert.Equal(t, "Grade 5A", summaries[0].GroupName)
			}
		})
	}
}
