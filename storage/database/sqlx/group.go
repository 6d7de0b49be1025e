package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core/group"
)

type (
	groupRepository struct {
		db *sqlx.DB
	}

	groupRow struct {
		ID      string         `db:"id"`
		Name    string         `db:"name"`
		Owners  pq.StringArray `db:"owners"`
		Members pq.StringArray `db:"members"`
	}
)

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

const (
	groupColumns = `id, name, owners, members`
	groupFTS     = `to_tsvector('english', name)`
)

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo groupRepository) fromRow(row groupRow) group.Group {
	grp := group.Group{
		ID:      row.ID,
		Name:    row.Name,
		Owners:  []string(row.Owners),
		Members: []string(row.Members),
	}
	if grp.Owners == nil {
		grp.Owners = []string{}
	}
	if grp.Members == nil {
		grp.Members = []string{}
	}
	return grp
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	row := groupRow{
		ID:      uuid.New().String(),
		Name:    grp.Name,
		Owners:  pq.StringArray(grp.Owners),
		Members: pq.StringArray(grp.Members),
	}
	if row.Owners == nil {
		row.Owners = pq.StringArray{}
	}
	if row.Members == nil {
		row.Members = pq.StringArray{}
	}
	q := `INSERT INTO "group" (` + groupColumns + `) VALUES (:id, :name, :owners, :members)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return repo.fromRow(row), nil
}

func (repo groupRepository) GetGroup(ctx context.Context, id string) (group.Group, error) {
	var row groupRow
	q := `SELECT ` + groupColumns + ` FROM "group" WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, errors.Wrap(err, "finding group")
	}
	return repo.fromRow(row), nil
}

func (repo groupRepository) QueryGroups(ctx context.Context, filter group.QueryFilter) ([]group.Group, error) {
	var qb query
	if filter.IDs != nil {
		qb.where("id = ANY(%s)", pq.Array(filter.IDs))
	}
	if filter.Owner != "" {
		qb.where("%s = ANY(owners)", filter.Owner)
	}
	if filter.User != "" {
		p := qb.arg(filter.User)
		qb.conds = append(qb.conds, "("+p+" = ANY(owners) OR "+p+" = ANY(members))")
	}
	if filter.Search != "" {
		qb.where(anyTerm(groupFTS), pq.Array(strings.Fields(filter.Search)))
	}

	var rows []groupRow
	q := `SELECT ` + groupColumns + ` FROM "group"` + qb.whereClause() + ` ORDER BY name, seq`
	if err := repo.db.SelectContext(ctx, &rows, q, qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.fromRow(row))
	}
	return groups, nil
}

func (repo groupRepository) GroupIDsWithUser(ctx context.Context, username string) ([]string, error) {
	ids := make([]string, 0)
	q := `SELECT id FROM "group" WHERE $1 = ANY(owners) OR $1 = ANY(members) ORDER BY id`
	if err := repo.db.SelectContext(ctx, &ids, q, username); err != nil {
		return nil, errors.Wrap(err, "querying groups with user")
	}
	return ids, nil
}

// UpdateGroup only touches the row if a value actually changes.
func (repo groupRepository) UpdateGroup(ctx context.Context, id string, patch group.Patch) (int64, error) {
	var qb query
	var sets, changes []string
	set := func(col string, v interface{}) {
		p := qb.arg(v)
		sets = append(sets, col+" = "+p)
		changes = append(changes, col+" IS DISTINCT FROM "+p)
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Owners != nil {
		set("owners", pq.StringArray(patch.Owners))
	}
	if patch.Members != nil {
		set("members", pq.StringArray(patch.Members))
	}
	if len(sets) == 0 {
		return 0, nil
	}
	q := `UPDATE "group" SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + qb.arg(id) + ` AND (` + strings.Join(changes, " OR ") + `)`
	res, err := repo.db.ExecContext(ctx, q, qb.args...)
	return affected(res, err, "updating group")
}

func (repo groupRepository) DeleteGroup(ctx context.Context, id string) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "group" WHERE id = $1`, id)
	return affected(res, err, "deleting group")
}

func (repo groupRepository) AddMember(ctx context.Context, id, username string) (int64, error) {
	q := `UPDATE "group" SET members = array_append(members, $2) WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, id, username)
	return affected(res, err, "adding group member")
}
