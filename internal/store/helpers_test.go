package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

// stubDB answers every store call with the configured fn; nil fns succeed
// with zero values.
type stubDB struct {
	getFn    func(ctx context.Context, dest any, query string, args ...any) error
	selectFn func(ctx context.Context, dest any, query string, args ...any) error
	execFn   func(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Methods that take a narrower interface are exercised with the same stub.
type (
	stubGetter   = stubDB
	stubSelecter = stubDB
	stubExecer   = stubDB
)

func (s stubDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.getFn == nil {
		return nil
	}
	return s.getFn(ctx, dest, query, args...)
}

func (s stubDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.selectFn == nil {
		return nil
	}
	return s.selectFn(ctx, dest, query, args...)
}

func (s stubDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.execFn == nil {
		return stubResult{rows: 1}, nil
	}
	return s.execFn(ctx, query, args...)
}

type stubResult struct {
	rows int64
	err  error
}

func (r stubResult) LastInsertId() (int64, error) { return 0, r.err }

func (r stubResult) RowsAffected() (int64, error) { return r.rows, r.err }

// requireSQL fails unless every fragment occurs in query, compared with
// whitespace collapsed.
func requireSQL(t *testing.T, query string, fragments ...string) {
	t.Helper()
	flat := strings.Join(strings.Fields(query), " ")
	for _, fragment := range fragments {
		if !strings.Contains(flat, fragment) {
			t.Fatalf("query %q does not contain %q", flat, fragment)
		}
	}
}
