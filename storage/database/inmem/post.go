package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/students-gateway/gateway/core/post"
)

type postRepository struct {
	db *postTable
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *DB) *postRepository {
	return &postRepository{db: db.post}
}

func (repo *postRepository) snapshot(row *postRow) post.Post {
	pst := row.Post
	pst.Viewed = copyStrings(pst.Viewed)
	pst.Acknowledged = append(make([]post.Acknowledgement, 0, len(pst.Acknowledged)), pst.Acknowledged...)
	return pst
}

func (repo *postRepository) InsertPost(_ context.Context, pst post.Post) (post.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	pst.ID = uuid.New().String()
	row := &postRow{seq: repo.db.seq}
	row.Post = pst
	row.Post = repo.snapshot(row)
	repo.db.table[pst.ID] = row
	return repo.snapshot(row), nil
}

func (repo *postRepository) GetPost(_ context.Context, id string) (post.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.table[id]; ok {
		return repo.snapshot(row), nil
	}
	return post.Post{}, post.ErrNotFound
}

// QueryPosts sorts by creation date, newest first; ties are broken by insertion order.
func (repo *postRepository) QueryPosts(_ context.Context, filter post.QueryFilter, skip, limit int) ([]post.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]*postRow, 0)
	for _, row := range repo.db.table {
		if !contains(filter.GroupIDs, row.GroupID) {
			continue
		}
		if filter.NotViewedBy != "" && row.ViewedBy(filter.NotViewedBy) {
			continue
		}
		if filter.Search != "" && !matches(filter.Search, row.Title, row.Body) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DateCreated != rows[j].DateCreated {
			return rows[i].DateCreated > rows[j].DateCreated
		}
		return rows[i].seq > rows[j].seq
	})

	posts := make([]post.Post, 0, limit)
	for i := skip; i < len(rows) && len(posts) < limit; i++ {
		posts = append(posts, repo.snapshot(rows[i]))
	}
	return posts, nil
}

func (repo *postRepository) UpdatePost(_ context.Context, id string, patch post.Patch) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[id]
	if !ok {
		return 0, nil
	}
	before := repo.snapshot(row)
	patch.Apply(&row.Post)
	if samePost(before, row.Post) {
		return 0, nil
	}
	return 1, nil
}

func (repo *postRepository) DeletePost(_ context.Context, id string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return 0, nil
	}
	delete(repo.db.table, id)
	return 1, nil
}

func (repo *postRepository) AddViewer(_ context.Context, id, username string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[id]
	if !ok || row.ViewedBy(username) {
		return 0, nil
	}
	row.Viewed = append(row.Viewed, username)
	return 1, nil
}

func (repo *postRepository) SeedAcknowledgement(_ context.Context, id, username string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[id]
	if !ok {
		return 0, nil
	}
	if _, exists := row.AcknowledgementOf(username); exists {
		return 0, nil
	}
	row.Acknowledged = append(row.Acknowledged, post.Acknowledgement{Username: username})
	return 1, nil
}

func (repo *postRepository) SetResponse(_ context.Context, id, username string, response bool) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[id]
	if !ok {
		return 0, nil
	}
	for i, ack := range row.Acknowledged {
		if ack.Username != username {
			continue
		}
		if ack.Response != nil && *ack.Response == response {
			return 0, nil
		}
		resp := response
		row.Acknowledged[i].Response = &resp
		return 1, nil
	}
	return 0, nil
}

// samePost compares the fields a Patch can replace.
func samePost(a, b post.Post) bool {
	return a.Title == b.Title &&
		a.Body == b.Body &&
		a.GroupID == b.GroupID &&
		a.RequiresAcknowledgement == b.RequiresAcknowledgement &&
		equalPtr(a.Location, b.Location) &&
		equalPtr(a.DateDue, b.DateDue)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
