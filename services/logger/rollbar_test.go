package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/students-gateway/gateway/core/user"
)

func newTestLogger(t *testing.T, app string) (*RollbarLogger, *bytes.Buffer) {
	t.Helper()
	rollbar.SetEnabled(false)
	var buf bytes.Buffer
	return &RollbarLogger{std: log.New(&buf, "", 0), app: app}, &buf
}

func TestRollbarLogger_newEntry(t *testing.T) {
	l, _ := newTestLogger(t, "gateway")
	errDB := errors.New("db is down")
	bob := user.User{Username: "bob", Name: "Bob", Role: user.RoleStudent}

	tests := []struct {
		name       string
		args       []interface{}
		wantErr    error
		wantUser   string
		wantFields map[string]interface{}
	}{
		{name: "no args", wantFields: map[string]interface{}{"app": "gateway"}},
		{
			name:       "error and user",
			args:       []interface{}{errDB, bob},
			wantErr:    errDB,
			wantUser:   "bob",
			wantFields: map[string]interface{}{"app": "gateway", "role": user.RoleStudent},
		},
		{
			name:       "first user wins",
			args:       []interface{}{bob, user.User{Username: "admin", Role: user.RoleAdmin}},
			wantUser:   "bob",
			wantFields: map[string]interface{}{"app": "gateway", "role": user.RoleStudent},
		},
		{
			name:       "anonymous user is not a person",
			args:       []interface{}{user.User{}, bob},
			wantUser:   "bob",
			wantFields: map[string]interface{}{"app": "gateway", "role": user.RoleStudent},
		},
		{
			name:    "maps are merged, extra values kept",
			args:    []interface{}{map[string]interface{}{"post": "p1"}, map[string]interface{}{"tokens": 2}, errDB, errors.New("second"), 42},
			wantErr: errDB,
			wantFields: map[string]interface{}{
				"app": "gateway", "post": "p1", "tokens": 2, "args": []interface{}{"second", 42},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := l.newEntry(tt.args)
			assert.Equal(t, tt.wantErr, e.err)
			if tt.wantUser == "" {
				assert.Nil(t, e.usr)
			} else {
				require.NotNil(t, e.usr)
				assert.Equal(t, tt.wantUser, e.usr.Username)
			}
			assert.Equal(t, tt.wantFields, e.fields)
		})
	}
}

func TestRollbarLogger_localOutput(t *testing.T) {
	l, buf := newTestLogger(t, "")

	l.Warn("push notification rejected", map[string]interface{}{"post": "p1"})
	assert.Equal(t, "[warning] push notification rejected\nmap[post:p1]\n", buf.String())

	buf.Reset()
	l.Error("creating post", errors.New("insert failed"))
	out := buf.String()
	assert.Contains(t, out, "[error] creating post\n")
	assert.Contains(t, out, "insert failed")
	assert.Contains(t, out, "message:creating post")

	buf.Reset()
	l.Info("Application stopped")
	assert.Equal(t, "[info] Application stopped\n", buf.String())
}
