// Package model contains the tabular game log types passed between layers.
package model

import (
	"errors"
	"fmt"
)

// Well-known game log columns.
const (
	ColPlayerName = "PLAYER_NAME"
	ColGameDate   = "GAME_DATE"
	ColMatchup    = "MATCHUP"
	ColPoints     = "PTS"
	ColRebounds   = "REB"
	ColAssists    = "AST"
)

// ErrRowWidth is returned when a row does not match the column count.
var ErrRowWidth = errors.New("row width does not match columns")

// Table is a game log table. Columns are discovered from the API response,
// so rows are positional and share one ordered column list. The zero value
// is an empty table.
type Table struct {
	Columns []string
	Rows    [][]any

	index   map[string]int
	indexed int
}

// NewTable builds a table and checks every row against the column count.
func NewTable(columns []string, rows [][]any) (*Table, error) {
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, i, len(r), len(columns))
		}
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// ColumnIndex returns the position of col, or -1.
func (t *Table) ColumnIndex(col string) int {
	if t == nil {
		return -1
	}
	if t.index == nil || t.indexed != len(t.Columns) {
		t.indexed = len(t.Columns)
		t.index = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			if _, dup := t.index[c]; !dup {
				t.index[c] = i
			}
		}
	}
	if i, ok := t.index[col]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether col is part of the schema.
func (t *Table) HasColumn(col string) bool { return t.ColumnIndex(col) >= 0 }

// Value returns row i's value for col. ok is false when col is unknown.
func (t *Table) Value(i int, col string) (any, bool) {
	j := t.ColumnIndex(col)
	if j < 0 {
		return nil, false
	}
	return t.Rows[i][j], true
}

// Record returns a column-keyed view of row i.
func (t *Table) Record(i int) Record {
	return Record{table: t, row: t.Rows[i]}
}

// Head returns a table with at most the first n rows. Rows are shared.
func (t *Table) Head(n int) *Table {
	if t == nil {
		return &Table{}
	}
	if n < 0 {
		n = 0
	}
	if n > t.Len() {
		n = t.Len()
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Project returns a table restricted to the given columns, in that order.
// Columns missing from t are skipped.
func (t *Table) Project(cols ...string) *Table {
	if t == nil {
		return &Table{}
	}
	keep := make([]int, 0, len(cols))
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if j := t.ColumnIndex(c); j >= 0 {
			keep = append(keep, j)
			names = append(names, c)
		}
	}

	rows := make([][]any, t.Len())
	for i, r := range t.Rows {
		out := make([]any, len(keep))
		for k, j := range keep {
			out[k] = r[j]
		}
		rows[i] = out
	}
	return &Table{Columns: names, Rows: rows}
}

// Clone copies the column list and every row. Cell values are shared.
func (t *Table) Clone() *Table {
	if t == nil {
		return &Table{}
	}
	cols := append([]string(nil), t.Columns...)
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]any(nil), r...)
	}
	return &Table{Columns: cols, Rows: rows}
}

// CountDistinct returns the number of distinct values in col, compared by
// their string form. Unknown columns count as zero.
func (t *Table) CountDistinct(col string) int {
	j := t.ColumnIndex(col)
	if j < 0 {
		return 0
	}
	seen := make(map[string]struct{}, t.Len())
	for _, r := range t.Rows {
		seen[FormatValue(r[j])] = struct{}{}
	}
	return len(seen)
}

// Record is one player-game row viewed through its table's schema.
type Record struct {
	table *Table
	row   []any
}

// Get returns the value for col.
func (r Record) Get(col string) (any, bool) {
	j := r.table.ColumnIndex(col)
	if j < 0 {
		return nil, false
	}
	return r.row[j], true
}

// String returns the value for col formatted as text, or "" when absent.
func (r Record) String(col string) string {
	v, ok := r.Get(col)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Values returns the row in column order.
func (r Record) Values() []any { return r.row }
