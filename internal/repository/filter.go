package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/records-api/internal/query"
)

// uniqueViolation is the Postgres error code for a unique constraint failure
const uniqueViolation = "23505"

// constraintFields maps unique indexes to the API field they protect
var constraintFields = map[string]string{
	"idx_articles_article_number": "articleNumber",
	"idx_employees_email":         "email",
	"articles_pkey":               "id",
	"employees_pkey":              "id",
}

// DuplicateKeyError is returned when a write collides with a unique index
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s: %v", e.Field, e.Err)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// translateError converts driver unique violations into DuplicateKeyError
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		field, ok := constraintFields[pqErr.Constraint]
		if !ok {
			field = pqErr.Constraint
		}
		return &DuplicateKeyError{Field: field, Err: err}
	}
	return err
}

// whereClause compiles a descriptor into a SQL WHERE clause. Values are always
// bound as parameters; columns come from the query schema only.
func whereClause(d query.Descriptor, args []any) (string, []any) {
	if d.MatchAll() {
		return "", args
	}

	var parts []string
	for _, c := range d.All {
		var sql string
		sql, args = conditionSQL(c, args)
		parts = append(parts, sql)
	}

	if len(d.Any) > 0 {
		var alts []string
		for _, c := range d.Any {
			var sql string
			sql, args = conditionSQL(c, args)
			alts = append(alts, sql)
		}
		parts = append(parts, "("+strings.Join(alts, " OR ")+")")
	}

	return " WHERE " + strings.Join(parts, " AND "), args
}

func conditionSQL(c query.Condition, args []any) (string, []any) {
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var sql string
	switch c.Op {
	case query.OpContains:
		sql = fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, c.Column, next("%"+query.EscapeLike(c.Text)+"%"))
	case query.OpPrefix:
		sql = fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, c.Column, next(query.EscapeLike(c.Text)+"%"))
	case query.OpRange:
		lo := next(c.Min)
		hi := next(c.Max)
		sql = fmt.Sprintf("%s BETWEEN %s AND %s", c.Column, lo, hi)
	case query.OpEqual:
		if c.Numeric {
			sql = fmt.Sprintf("%s = %s", c.Column, next(c.Number))
		} else {
			sql = fmt.Sprintf("LOWER(%s) = LOWER(%s)", c.Column, next(c.Text))
		}
	default:
		// unknown operators match nothing
		sql = "FALSE"
	}
	return sql, args
}

// orderClause renders the sort with id as a tie-breaker for stable paging
func orderClause(s query.Sort) string {
	dir := "ASC"
	if s.Order == query.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", s.Column, dir)
}

// pageClause appends LIMIT and OFFSET parameters
func pageClause(w query.Window, args []any) (string, []any) {
	args = append(args, w.Limit, w.Skip)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
