// Package latest narrows a game log table to its most recent game date.
package latest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/gamelogs/internal/domain/model"
)

// ErrMissingColumn is returned when the date or name column is absent.
var ErrMissingColumn = errors.New("missing column")

// DateParseError reports a date cell that matches none of the known layouts.
type DateParseError struct {
	Row   int
	Value any
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("row %d: unparsable game date %v", e.Row, e.Value)
}

// Layouts accepted for the date column, tried in order.
var dateLayouts = []string{ //nolint:gochecknoglobals // read-only
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
	"Jan 02, 2006",
	"01/02/2006",
}

type options struct {
	dateCol string
	nameCol string
}

// Option configures SelectLatest.
type Option func(*options)

// WithDateColumn overrides the GAME_DATE column name.
func WithDateColumn(col string) Option {
	return func(o *options) {
		if col != "" {
			o.dateCol = col
		}
	}
}

// WithNameColumn overrides the PLAYER_NAME column name.
func WithNameColumn(col string) Option {
	return func(o *options) {
		if col != "" {
			o.nameCol = col
		}
	}
}

// SelectLatest keeps the rows dated on the table's most recent game date and
// orders them by player name. Players listed more than once on that date are
// kept. An empty table is returned as is; t is never modified.
func SelectLatest(t *model.Table, opts ...Option) (*model.Table, error) {
	if t.Empty() {
		return t, nil
	}

	o := options{dateCol: model.ColGameDate, nameCol: model.ColPlayerName}
	for _, opt := range opts {
		opt(&o)
	}

	dateIdx := t.ColumnIndex(o.dateCol)
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, o.dateCol)
	}
	nameIdx := t.ColumnIndex(o.nameCol)
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, o.nameCol)
	}

	dates := make([]time.Time, t.Len())
	var maxDate time.Time
	for i, row := range t.Rows {
		d, err := ParseDate(row[dateIdx])
		if err != nil {
			return nil, &DateParseError{Row: i, Value: row[dateIdx]}
		}
		dates[i] = d
		if i == 0 || d.After(maxDate) {
			maxDate = d
		}
	}

	rows := make([][]any, 0)
	for i, row := range t.Rows {
		if dates[i].Equal(maxDate) {
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return model.FormatValue(rows[a][nameIdx]) < model.FormatValue(rows[b][nameIdx])
	})

	return &model.Table{Columns: append([]string(nil), t.Columns...), Rows: rows}, nil
}

// ParseDate converts a date cell to a calendar date at UTC midnight. Time
// of day is dropped so that two rows on the same day compare equal.
func ParseDate(v any) (time.Time, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case time.Time:
		return truncateDay(x), nil
	default:
		return time.Time{}, fmt.Errorf("game date has type %T", v)
	}

	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return truncateDay(d), nil
		}
	}
	return time.Time{}, fmt.Errorf("game date %q matches no known layout", s)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Summary describes a selection for progress output.
type Summary struct {
	Date          time.Time
	Rows          int
	UniquePlayers int
}

// Summarize reports the date, row count and distinct players of a table
// produced by SelectLatest. The date is zero for an empty table.
func Summarize(t *model.Table, opts ...Option) Summary {
	o := options{dateCol: model.ColGameDate, nameCol: model.ColPlayerName}
	for _, opt := range opts {
		opt(&o)
	}

	s := Summary{Rows: t.Len(), UniquePlayers: t.CountDistinct(o.nameCol)}
	if !t.Empty() {
		if v, ok := t.Value(0, o.dateCol); ok {
			if d, err := ParseDate(v); err == nil {
				s.Date = d
			}
		}
	}
	return s
}
