package harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/pulsenet/internal/store"
)

// sqlIdent is the shape of a run log table or column name. Identifiers
// cannot be bound as parameters, so anything else is rejected.
var sqlIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// rowQuery selects the run log rows matching a set of column values.
type rowQuery struct {
	table string
	where []string // sorted column names
	args  []any
}

func newRowQuery(table string, where map[string]any) (*rowQuery, error) {
	if table == "" {
		return nil, fmt.Errorf("run_log assertion requires table name")
	}
	if !sqlIdent.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	q := &rowQuery{table: table, where: slices.Sorted(maps.Keys(where))}
	for _, col := range q.where {
		if !sqlIdent.MatchString(col) {
			return nil, fmt.Errorf("invalid column name %q in where", col)
		}
		q.args = append(q.args, sqlValue(where[col]))
	}
	return q, nil
}

func (q *rowQuery) sql() string {
	if len(q.where) == 0 {
		return "SELECT * FROM " + q.table
	}
	conds := make([]string, len(q.where))
	for i, col := range q.where {
		conds[i] = col + " = ?"
	}
	return "SELECT * FROM " + q.table + " WHERE " + strings.Join(conds, " AND ")
}

func (q *rowQuery) String() string {
	if len(q.where) == 0 {
		return q.table
	}
	conds := make([]string, len(q.where))
	for i, col := range q.where {
		conds[i] = fmt.Sprintf("%s=%v", col, q.args[i])
	}
	return q.table + " where " + strings.Join(conds, " AND ")
}

// one returns the single matching row keyed by column. found is false
// when nothing matched; more than one match is an error.
func (q *rowQuery) one(ctx context.Context, st *store.Store) (row map[string]any, found bool, err error) {
	rows, err := st.Query(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	row, err = scanRow(rows)
	if err != nil {
		return nil, false, err
	}
	if rows.Next() {
		return nil, true, errAmbiguousRow
	}
	return row, true, rows.Err()
}

var errAmbiguousRow = errors.New("multiple rows matched")

func scanRow(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(map[string]any, len(cols))
	for i, c := range cols {
		row[c] = vals[i]
	}
	return row, nil
}

// assertRunLog checks that exactly one row of a run log table matches
// Where and that it holds every Expect column value. Columns not named in
// Expect are ignored.
func assertRunLog(ctx context.Context, st *store.Store, a Assertion) error {
	q, err := newRowQuery(a.Table, a.Where)
	if err != nil {
		return err
	}

	row, found, err := q.one(ctx, st)
	switch {
	case errors.Is(err, errAmbiguousRow):
		return &AssertionError{
			Type:     AssertRunLog,
			Expected: "exactly one row in " + q.String(),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	case err != nil:
		return &AssertionError{
			Type:     AssertRunLog,
			Expected: "a readable row in " + q.String(),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	case !found:
		return &AssertionError{
			Type:     AssertRunLog,
			Expected: "row in " + q.String(),
			Actual:   "row not found",
		}
	}

	for _, col := range slices.Sorted(maps.Keys(a.Expect)) {
		want := a.Expect[col]
		got, ok := row[col]
		if !ok {
			return &AssertionError{
				Type:     AssertRunLog,
				Expected: fmt.Sprintf("field %q in %s", col, a.Table),
				Actual:   fmt.Sprintf("field %q not present in columns %v", col, slices.Sorted(maps.Keys(row))),
			}
		}
		if !columnValuesEqual(want, got) {
			return &AssertionError{
				Type:     AssertRunLog,
				Expected: fmt.Sprintf("field %q = %v", col, want),
				Actual:   fmt.Sprintf("field %q = %v (%T)", col, got, got),
			}
		}
	}
	return nil
}

// sqlValue converts a YAML scalar to a bindable value. Booleans are
// stored as 0/1 in the run log.
func sqlValue(v any) any {
	switch v := v.(type) {
	case string, int, int64, float64:
		return v
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	default:
		return fmt.Sprint(v)
	}
}

// columnValuesEqual compares a YAML value with a scanned SQLite column.
// SQLite hands back integers as int64, and booleans as 0/1.
func columnValuesEqual(want, got any) bool {
	if want == nil || got == nil {
		return want == nil && got == nil
	}

	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == w
	case int:
		return columnValuesEqual(int64(w), got)
	case int64:
		switch g := got.(type) {
		case int64:
			return g == w
		case int:
			return int64(g) == w
		}
		return false
	case bool:
		switch g := got.(type) {
		case bool:
			return g == w
		case int64:
			return (g != 0) == w
		}
		return false
	}
	return reflect.DeepEqual(want, got)
}
