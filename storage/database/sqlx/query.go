package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// query accumulates postgres positional arguments and the clauses referencing them.
type query struct {
	args  []interface{}
	conds []string
}

// arg binds v and returns its placeholder.
func (q *query) arg(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// where adds a condition; %s verbs in cond are replaced by the placeholders of args.
func (q *query) where(cond string, args ...interface{}) {
	placeholders := make([]interface{}, 0, len(args))
	for _, a := range args {
		placeholders = append(placeholders, q.arg(a))
	}
	q.conds = append(q.conds, fmt.Sprintf(cond, placeholders...))
}

func (q *query) whereClause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// affected returns the number of rows a statement changed.
func affected(res sql.Result, err error, msg string) (int64, error) {
	if err != nil {
		return 0, errors.Wrap(err, msg)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, msg)
	}
	return n, nil
}

// anyTerm is a condition matching any word of the bound text array against the tsvector expr.
func anyTerm(expr string) string {
	return "EXISTS (SELECT 1 FROM unnest(%s::text[]) AS term " +
		"WHERE " + expr + " @@ plainto_tsquery('english', term))"
}
