package inmemdb

import (
	"strings"
	"sync"

	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/post"
	"github.com/students-gateway/gateway/core/user"
)

type (
	// DB is a process-local store; each table has its own lock so every call is atomic.
	DB struct {
		user  *userTable
		group *groupTable
		post  *postTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User // {username: user}
	}

	groupTable struct {
		sync.RWMutex
		table map[string]*groupRow
		seq   int64
	}

	groupRow struct {
		group.Group
		seq int64
	}

	postTable struct {
		sync.RWMutex
		table map[string]*postRow
		seq   int64
	}

	postRow struct {
		post.Post
		seq int64
	}
)

func Open() *DB {
	return &DB{
		user:  &userTable{table: make(map[string]*user.User)},
		group: &groupTable{table: make(map[string]*groupRow)},
		post:  &postTable{table: make(map[string]*postRow)},
	}
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return append(make([]string, 0, len(ss)), ss...)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// matches reports whether any term of query occurs in any of texts, ignoring case.
func matches(query string, texts ...string) bool {
	for _, term := range strings.Fields(strings.ToLower(query)) {
		for _, text := range texts {
			if strings.Contains(strings.ToLower(text), term) {
				return true
			}
		}
	}
	return false
}
