package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/students-gateway/gateway/core/post"
)

type (
	postRepository struct {
		db *sqlx.DB
	}

	postRow struct {
		ID                      string         `db:"id"`
		Title                   string         `db:"title"`
		Body                    string         `db:"body"`
		GroupID                 string         `db:"group_id"`
		AuthorID                string         `db:"author_id"`
		DateCreated             int64          `db:"date_created"`
		DateDue                 null.Int64     `db:"date_due"`
		Location                null.String    `db:"location"`
		RequiresAcknowledgement bool           `db:"requires_acknowledgement"`
		Viewed                  pq.StringArray `db:"viewed"`
	}

	ackRow struct {
		PostID   string    `db:"post_id"`
		Username string    `db:"username"`
		Response null.Bool `db:"response"`
	}
)

var _ post.Repository = (*postRepository)(nil) // interface compliance check

const (
	postColumns = `id, title, body, group_id, author_id, date_created, date_due, location,
		requires_acknowledgement, viewed`
	postFTS = `to_tsvector('english', title || ' ' || body)`
)

func NewPostRepository(db *sqlx.DB) *postRepository {
	return &postRepository{db: db}
}

func (repo postRepository) toRow(pst post.Post) postRow {
	row := postRow{
		ID:                      pst.ID,
		Title:                   pst.Title,
		Body:                    pst.Body,
		GroupID:                 pst.GroupID,
		AuthorID:                pst.AuthorID,
		DateCreated:             pst.DateCreated,
		DateDue:                 null.Int64FromPtr(pst.DateDue),
		Location:                null.StringFromPtr(pst.Location),
		RequiresAcknowledgement: pst.RequiresAcknowledgement,
		Viewed:                  pq.StringArray(pst.Viewed),
	}
	if row.Viewed == nil {
		row.Viewed = pq.StringArray{}
	}
	return row
}

func (repo postRepository) fromRow(row postRow, acks []ackRow) post.Post {
	pst := post.Post{
		ID:                      row.ID,
		Title:                   row.Title,
		Body:                    row.Body,
		GroupID:                 row.GroupID,
		AuthorID:                row.AuthorID,
		DateCreated:             row.DateCreated,
		DateDue:                 row.DateDue.Ptr(),
		Location:                row.Location.Ptr(),
		RequiresAcknowledgement: row.RequiresAcknowledgement,
		Viewed:                  []string(row.Viewed),
		Acknowledged:            make([]post.Acknowledgement, 0, len(acks)),
	}
	if pst.Viewed == nil {
		pst.Viewed = []string{}
	}
	for _, ack := range acks {
		pst.Acknowledged = append(pst.Acknowledged, post.Acknowledgement{
			Username: ack.Username,
			Response: ack.Response.Ptr(),
		})
	}
	return pst
}

// acknowledgements returns the acknowledgements of the given posts grouped by post, in seed order.
func (repo postRepository) acknowledgements(ctx context.Context, ids []string) (map[string][]ackRow, error) {
	var rows []ackRow
	q := `SELECT post_id, username, response FROM post_acknowledgement WHERE post_id = ANY($1) ORDER BY seq`
	if err := repo.db.SelectContext(ctx, &rows, q, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "querying acknowledgements")
	}
	acks := make(map[string][]ackRow, len(ids))
	for _, row := range rows {
		acks[row.PostID] = append(acks[row.PostID], row)
	}
	return acks, nil
}

func (repo postRepository) InsertPost(ctx context.Context, pst post.Post) (post.Post, error) {
	pst.ID = uuid.New().String()
	row := repo.toRow(pst)

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return post.Post{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO post (` + postColumns + `) VALUES (:id, :title, :body, :group_id, :author_id,
		:date_created, :date_due, :location, :requires_acknowledgement, :viewed)`
	if _, err = tx.NamedExecContext(ctx, q, row); err != nil {
		return post.Post{}, errors.Wrap(err, "inserting post")
	}
	acks := make([]ackRow, 0, len(pst.Acknowledged))
	for _, ack := range pst.Acknowledged {
		a := ackRow{PostID: pst.ID, Username: ack.Username, Response: null.BoolFromPtr(ack.Response)}
		q = `INSERT INTO post_acknowledgement (post_id, username, response) VALUES (:post_id, :username, :response)`
		if _, err = tx.NamedExecContext(ctx, q, a); err != nil {
			return post.Post{}, errors.Wrap(err, "inserting acknowledgement")
		}
		acks = append(acks, a)
	}
	if err = tx.Commit(); err != nil {
		return post.Post{}, errors.Wrap(err, "committing post")
	}
	return repo.fromRow(row, acks), nil
}

func (repo postRepository) GetPost(ctx context.Context, id string) (post.Post, error) {
	var row postRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+postColumns+` FROM post WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, errors.Wrap(err, "finding post")
	}
	acks, err := repo.acknowledgements(ctx, []string{id})
	if err != nil {
		return post.Post{}, err
	}
	return repo.fromRow(row, acks[id]), nil
}

// QueryPosts sorts by creation date, newest first; ties are broken by insertion order.
func (repo postRepository) QueryPosts(ctx context.Context, filter post.QueryFilter, skip, limit int) ([]post.Post, error) {
	var qb query
	qb.where("group_id = ANY(%s)", pq.Array(filter.GroupIDs))
	if filter.NotViewedBy != "" {
		qb.where("NOT (%s = ANY(viewed))", filter.NotViewedBy)
	}
	if filter.Search != "" {
		qb.where(anyTerm(postFTS), pq.Array(strings.Fields(filter.Search)))
	}

	var rows []postRow
	q := `SELECT ` + postColumns + ` FROM post` + qb.whereClause() +
		` ORDER BY date_created DESC, seq DESC LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa(skip)
	if err := repo.db.SelectContext(ctx, &rows, q, qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	if len(rows) == 0 {
		return []post.Post{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	acks, err := repo.acknowledgements(ctx, ids)
	if err != nil {
		return nil, err
	}
	posts := make([]post.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, repo.fromRow(row, acks[row.ID]))
	}
	return posts, nil
}

// UpdatePost only touches the row if a value actually changes.
func (repo postRepository) UpdatePost(ctx context.Context, id string, patch post.Patch) (int64, error) {
	var qb query
	var sets, changes []string
	set := func(col string, v interface{}) {
		p := qb.arg(v)
		sets = append(sets, col+" = "+p)
		changes = append(changes, col+" IS DISTINCT FROM "+p)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Body != nil {
		set("body", *patch.Body)
	}
	if patch.GroupID != nil {
		set("group_id", *patch.GroupID)
	}
	if patch.Location.Set {
		set("location", null.StringFromPtr(patch.Location.Value))
	}
	if patch.RequiresAcknowledgement != nil {
		set("requires_acknowledgement", *patch.RequiresAcknowledgement)
	}
	if patch.DateDue.Set {
		set("date_due", null.Int64FromPtr(patch.DateDue.Value))
	}
	if len(sets) == 0 {
		return 0, nil
	}
	q := `UPDATE post SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + qb.arg(id) + ` AND (` + strings.Join(changes, " OR ") + `)`
	res, err := repo.db.ExecContext(ctx, q, qb.args...)
	return affected(res, err, "updating post")
}

func (repo postRepository) DeletePost(ctx context.Context, id string) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM post WHERE id = $1`, id)
	return affected(res, err, "deleting post")
}

func (repo postRepository) AddViewer(ctx context.Context, id, username string) (int64, error) {
	q := `UPDATE post SET viewed = array_append(viewed, $2::text) WHERE id = $1 AND NOT ($2 = ANY(viewed))`
	res, err := repo.db.ExecContext(ctx, q, id, username)
	return affected(res, err, "adding post viewer")
}

func (repo postRepository) SeedAcknowledgement(ctx context.Context, id, username string) (int64, error) {
	q := `INSERT INTO post_acknowledgement (post_id, username) SELECT id, $2 FROM post WHERE id = $1
		ON CONFLICT (post_id, username) DO NOTHING`
	res, err := repo.db.ExecContext(ctx, q, id, username)
	return affected(res, err, "seeding acknowledgement")
}

func (repo postRepository) SetResponse(ctx context.Context, id, username string, response bool) (int64, error) {
	q := `UPDATE post_acknowledgement SET response = $3
		WHERE post_id = $1 AND username = $2 AND response IS DISTINCT FROM $3`
	res, err := repo.db.ExecContext(ctx, q, id, username, response)
	return affected(res, err, "setting response")
}
