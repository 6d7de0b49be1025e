package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/students-gateway/gateway/core/group"
)

type groupRepository struct {
	db *groupTable
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db.group}
}

func (repo *groupRepository) snapshot(row *groupRow) group.Group {
	grp := row.Group
	grp.Owners = copyStrings(grp.Owners)
	grp.Members = copyStrings(grp.Members)
	return grp
}

func (repo *groupRepository) CreateGroup(_ context.Context, grp group.Group) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	grp.ID = uuid.New().String()
	grp.Owners = copyStrings(grp.Owners)
	grp.Members = copyStrings(grp.Members)
	row := &groupRow{Group: grp, seq: repo.db.seq}
	repo.db.table[grp.ID] = row
	return repo.snapshot(row), nil
}

func (repo *groupRepository) GetGroup(_ context.Context, id string) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.table[id]; ok {
		return repo.snapshot(row), nil
	}
	return group.Group{}, group.ErrNotFound
}

// QueryGroups returns the matching groups ordered by name.
func (repo *groupRepository) QueryGroups(_ context.Context, filter group.QueryFilter) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]*groupRow, 0)
	for _, row := range repo.db.table {
		if filter.IDs != nil && !contains(filter.IDs, row.ID) {
			continue
		}
		if filter.Owner != "" && !row.IsOwner(filter.Owner) {
			continue
		}
		if filter.User != "" && !row.HasUser(filter.User) {
			continue
		}
		if filter.Search != "" && !matches(filter.Search, row.Name) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].seq < rows[j].seq
	})

	groups := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.snapshot(row))
	}
	return groups, nil
}

func (repo *groupRepository) GroupIDsWithUser(_ context.Context, username string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0)
	for id, row := range repo.db.table {
		if row.HasUser(username) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (repo *groupRepository) UpdateGroup(_ context.Context, id string, patch group.Patch) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[id]
	if !ok {
		return 0, nil
	}
	var modified bool
	if patch.Name != nil && *patch.Name != row.Name {
		row.Name = *patch.Name
		modified = true
	}
	if patch.Owners != nil && !equalStrings(patch.Owners, row.Owners) {
		row.Owners = copyStrings(patch.Owners)
		modified = true
	}
	if patch.Members != nil && !equalStrings(patch.Members, row.Members) {
		row.Members = copyStrings(patch.Members)
		modified = true
	}
	if !modified {
		return 0, nil
	}
	return 1, nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return 0, nil
	}
	delete(repo.db.table, id)
	return 1, nil
}

func (repo *groupRepository) AddMember(_ context.Context, id, username string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[id]
	if !ok {
		return 0, nil
	}
	row.Members = append(row.Members, username)
	return 1, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
