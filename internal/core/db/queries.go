package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// requiredQueries must be present after loading; a missing name is a
// packaging error, reported at startup rather than on first use.
var requiredQueries = []string{
	"insert-form", "get-form", "list-forms", "delete-form",
	"get-api-key-by-hash", "update-last-used", "insert-api-key", "revoke-api-key",
}

// Queries runs named SQL statements, already rebound to the driver's
// placeholder style.
type Queries struct {
	db     *sqlx.DB
	byName map[string]string
}

// LoadQueries parses every embedded queries/*.sql file.
func LoadQueries(db *sqlx.DB) (*Queries, error) {
	files, err := fs.Glob(queriesFS, "queries/*.sql")
	if err != nil {
		return nil, err
	}

	dots := make([]*dotsql.DotSql, 0, len(files))
	for _, name := range files {
		content, err := queriesFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		dot, err := dotsql.LoadFromString(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		dots = append(dots, dot)
	}

	merged := dotsql.Merge(dots...)
	byName := make(map[string]string)
	for name := range merged.QueryMap() {
		query, err := merged.Raw(name)
		if err != nil {
			return nil, fmt.Errorf("failed to render query %s: %w", name, err)
		}
		byName[name] = db.Rebind(query)
	}
	for _, name := range requiredQueries {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("query %s missing from queries/*.sql", name)
		}
	}
	return &Queries{db: db, byName: byName}, nil
}

func (q *Queries) raw(name string) (string, error) {
	query, ok := q.byName[name]
	if !ok {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return query, nil
}

// ExecContext runs a named statement.
func (q *Queries) ExecContext(ctx context.Context, name string, args ...any) (sql.Result, error) {
	query, err := q.raw(name)
	if err != nil {
		return nil, err
	}
	return q.db.ExecContext(ctx, query, args...)
}

// GetContext scans one row into dest.
func (q *Queries) GetContext(ctx context.Context, name string, dest any, args ...any) error {
	query, err := q.raw(name)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, query, args...)
}

// SelectContext scans all rows into the slice dest.
func (q *Queries) SelectContext(ctx context.Context, name string, dest any, args ...any) error {
	query, err := q.raw(name)
	if err != nil {
		return err
	}
	return q.db.SelectContext(ctx, dest, query, args...)
}
