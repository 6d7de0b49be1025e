package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	echoapi "github.com/students-gateway/gateway/apps/api/echo"
	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/notification"
	"github.com/students-gateway/gateway/core/post"
	"github.com/students-gateway/gateway/core/user"
	emailsvc "github.com/students-gateway/gateway/services/email"
	pushsvc "github.com/students-gateway/gateway/services/push"
	"github.com/students-gateway/gateway/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// env is a server backed by a fresh in-memory store.
type env struct {
	app   *echoapi.Server
	conf  *core.Config
	repos testutil.Repos
	push  *pushsvc.ServiceMock
	posts *post.Service
	grps  *group.Service
}

func setup(t *testing.T) env {
	t.Helper()
	conf := testutil.NewConfig()
	logger := testutil.NewLogger()
	repos := testutil.NewRepos()

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	push := pushsvc.NewServiceMock()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(repos.Users, logger)
	grpSvc := group.NewService(repos.Groups, logger)
	pstSvc := post.NewService(repos.Posts, grpSvc, repos.Groups, usrSvc, logger)

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		GroupSvc:        grpSvc,
		PostSvc:         pstSvc,
		NotificationSvc: notification.NewService(repos.Posts, repos.Groups, repos.Users, push, mailSvc, logger, time.Second),
		Validate:        validate,
		Translator:      translator,
	})
	return env{app: app, conf: conf, repos: repos, push: push, posts: pstSvc, grps: grpSvc}
}

func (e env) serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	e.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, usr.Username, usr.Role))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
