package testutil

import (
	"context"
	"io"
	"log"
	"os"
	"testing"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/post"
	"github.com/students-gateway/gateway/core/user"
	logsvc "github.com/students-gateway/gateway/services/logger"
	inmemdb "github.com/students-gateway/gateway/storage/database/inmem"
)

// Repos are the in-memory repositories backing a test.
type Repos struct {
	Users  user.Repository
	Groups group.Repository
	Posts  post.Repository
}

func NewRepos() Repos {
	db := inmemdb.Open()
	return Repos{
		Users:  inmemdb.NewUserRepository(db),
		Groups: inmemdb.NewGroupRepository(db),
		Posts:  inmemdb.NewPostRepository(db),
	}
}

// NewConfig returns the TEST environment config, on the in-memory engine.
func NewConfig() *core.Config {
	_ = os.Setenv("ENV", "TEST")
	conf := core.NewConfig()
	conf.Database.Engine = core.EngineInMem
	return conf
}

// NewLogger returns a logger reporting nothing.
func NewLogger() core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), NewConfig())
	logger.Enable(false)
	return logger
}

func CreateUser(t *testing.T, repo user.Repository, username, name, role, pwd string) user.User {
	usr := user.User{Username: username, Name: name, Role: role}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateGroup(t *testing.T, repo group.Repository, name string, owners, members []string) group.Group {
	grp, err := repo.CreateGroup(context.Background(), group.Group{Name: name, Owners: owners, Members: members})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

func CreatePost(t *testing.T, repo post.Repository, groupID, author, title string, created int64, ackRequired bool) post.Post {
	pst, err := repo.InsertPost(context.Background(), post.Post{
		Title:                   title,
		Body:                    title,
		GroupID:                 groupID,
		AuthorID:                author,
		DateCreated:             created,
		RequiresAcknowledgement: ackRequired,
		Viewed:                  []string{},
		Acknowledged:            []post.Acknowledgement{},
	})
	if err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}
	return pst
}
