package repo

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type call struct {
	query string
	args  []any
}

// fakeExecutor answers statements by the first matching query substring.
type fakeExecutor struct {
	calls   []call
	rows    map[string][][]any
	tags    map[string]string
	errs    map[string]error
	scanErr map[string]error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		rows:    map[string][][]any{},
		tags:    map[string]string{},
		errs:    map[string]error{},
		scanErr: map[string]error{},
	}
}

func (f *fakeExecutor) lookupErr(m map[string]error, query string) error {
	for key, err := range m {
		if strings.Contains(query, key) {
			return err
		}
	}
	return nil
}

func (f *fakeExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{query: query, args: args})
	if err := f.lookupErr(f.errs, query); err != nil {
		return pgconn.CommandTag{}, err
	}
	for key, tag := range f.tags {
		if strings.Contains(query, key) {
			return pgconn.NewCommandTag(tag), nil
		}
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{query: query, args: args})
	if err := f.lookupErr(f.scanErr, query); err != nil {
		return fakeRow{err: err}
	}
	for key, rows := range f.rows {
		if strings.Contains(query, key) && len(rows) > 0 {
			return fakeRow{values: rows[0]}
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (f *fakeExecutor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{query: query, args: args})
	if err := f.lookupErr(f.errs, query); err != nil {
		return nil, err
	}
	for key, rows := range f.rows {
		if strings.Contains(query, key) {
			return &fakeRows{rows: rows}, nil
		}
	}
	return &fakeRows{}, nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type testRowsBase struct{}

func (testRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (testRowsBase) Conn() *pgx.Conn { return nil }

func (testRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (testRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (testRowsBase) RawValues() [][]byte { return nil }

type fakeRows struct {
	testRowsBase
	rows   [][]any
	idx    int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.rows[r.idx-1]) }

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Close() { r.closed = true }

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d: %s not assignable to %s", i, v.Type(), target.Type())
		}
		target.Set(v)
	}
	return nil
}
