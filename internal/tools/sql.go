package tools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rahul/insightforge/internal/dataset"
)

// ErrNoDataset is returned when a query runs before any table is registered.
var ErrNoDataset = errors.New("no dataset registered; register the default dataset first")

// QueryError is an SQL executor failure. It carries the offending query.
type QueryError struct {
	Query string
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("SQL error: %v\nQuery:\n%s", e.Cause, e.Query)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// SQLEngine runs queries against registered tables held in an in-memory
// sqlite database.
type SQLEngine struct {
	db *sql.DB

	mu     sync.Mutex
	tables map[string]bool
}

func NewSQLEngine() (*SQLEngine, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLEngine{db: db, tables: make(map[string]bool)}, nil
}

func (e *SQLEngine) Name() string {
	return "sql"
}

func (e *SQLEngine) Description() string {
	return fmt.Sprintf("Run a read-only SQL query against the %q table and return the result table.", dataset.SalesTable)
}

func (e *SQLEngine) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The SQL query to run",
			},
		},
		"required": []string{"query"},
	}
}

// Register loads t under name, replacing any table already registered with
// that name.
func (e *SQLEngine) Register(ctx context.Context, name string, t *dataset.Table) error {
	if t == nil || len(t.Columns) == 0 {
		return fmt.Errorf("cannot register table %q: no columns", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("failed to drop table %q: %w", name, err)
	}

	defs := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = quoteIdent(c) + " " + columnAffinity(t, i)
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %q: %w", name, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into %q: %w", i, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	e.tables[name] = true
	return nil
}

// Run executes query and returns its result as a table. All failures are
// reported as *QueryError.
func (e *SQLEngine) Run(ctx context.Context, query string) (*dataset.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.tables) == 0 {
		return nil, &QueryError{Query: query, Cause: ErrNoDataset}
	}
	if strings.TrimSpace(query) == "" {
		return nil, &QueryError{Query: query, Cause: errors.New("empty query")}
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &QueryError{Query: query, Cause: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Cause: err}
	}

	result := dataset.New(cols...)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Query: query, Cause: err}
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Cause: err}
	}
	return result, nil
}

func (e *SQLEngine) Close() error {
	return e.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnAffinity picks a sqlite type from the first non-nil value.
func columnAffinity(t *dataset.Table, col int) string {
	for _, row := range t.Rows {
		switch row[col].(type) {
		case nil:
			continue
		case int, int32, int64:
			return "INTEGER"
		case float32, float64:
			return "REAL"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}
