package app_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/gamelogs/internal/adapters/csvout"
	"github.com/okian/gamelogs/internal/adapters/statsapi"
	"github.com/okian/gamelogs/internal/app"
	"github.com/okian/gamelogs/internal/domain/latest"
	"github.com/okian/gamelogs/internal/domain/model"
	"github.com/okian/gamelogs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeFetcher serves canned tables per season and records every query.
type fakeFetcher struct {
	tables  map[string]*model.Table
	err     error
	queries []statsapi.Query
}

func (f *fakeFetcher) Fetch(_ context.Context, q statsapi.Query) (*model.Table, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return &model.Table{}, f.err
	}
	if t, ok := f.tables[q.Season]; ok {
		return t, nil
	}
	return &model.Table{}, nil
}

func (f *fakeFetcher) seasons() []string {
	out := make([]string, len(f.queries))
	for i, q := range f.queries {
		out[i] = q.Season
	}
	return out
}

type failingWriter struct{ err error }

func (w failingWriter) Write(context.Context, *model.Table) (string, error) { return "", w.err }

func gameLogs() *model.Table {
	return &model.Table{
		Columns: []string{"PLAYER_NAME", "TEAM_ABBREVIATION", "GAME_DATE", "MATCHUP", "PTS", "REB", "AST"},
		Rows: [][]any{
			{"Carl", "BOS", "2025-01-10T00:00:00", "BOS vs. NYK", 12.0, 3.0, 1.0},
			{"Bob", "LAL", "2025-01-12T00:00:00", "LAL @ DEN", 20.0, 5.0, 9.0},
			{"Alice", "DEN", "2025-01-12T00:00:00", "DEN vs. LAL", 25.0, 7.0, 4.0},
		},
	}
}

func clock() time.Time { return time.Date(2025, 1, 13, 6, 0, 0, 0, time.UTC) }

func dirEntries(dir string) []os.DirEntry {
	entries, _ := os.ReadDir(dir)
	return entries
}

func TestRunner_Run(t *testing.T) {
	Convey("Given a runner with a temp output dir", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithPrometheusRegistry(reg))
		var console bytes.Buffer

		newRunner := func(f app.Fetcher, opts ...app.Option) *app.Runner {
			base := []app.Option{
				app.WithConsole(&console),
				app.WithMetrics(m),
				app.WithClock(clock),
				app.WithRunID("run-1"),
			}
			return app.New(f, csvout.NewWriter(dir, csvout.WithClock(clock)), append(base, opts...)...)
		}

		Convey("When the first season has data", func() {
			f := &fakeFetcher{tables: map[string]*model.Table{"2025-26": gameLogs()}}

			res, err := newRunner(f).Run(ctx)

			Convey("Then the most recent games should be written and previewed", func() {
				So(err, ShouldBeNil)
				So(app.ExitCode(err), ShouldEqual, 0)
				So(f.seasons(), ShouldResemble, []string{"2025-26"})
				So(res.RunID, ShouldEqual, "run-1")
				So(res.Season, ShouldEqual, "2025-26")
				So(res.FetchedRows, ShouldEqual, 3)
				So(res.UniquePlayers, ShouldEqual, 3)
				So(res.Latest, ShouldResemble, latest.Summary{
					Date:          time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
					Rows:          2,
					UniquePlayers: 2,
				})
				So(filepath.Base(res.Path), ShouldEqual, "nba_most_recent_games_20250113_060000.csv")

				data, readErr := os.ReadFile(res.Path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldStartWith, "PLAYER_NAME,TEAM_ABBREVIATION,GAME_DATE")
				So(string(data), ShouldContainSubstring, "Alice,DEN")
				So(string(data), ShouldNotContainSubstring, "Carl")

				So(console.String(), ShouldContainSubstring, "Preview (first 10 rows):")
				So(console.String(), ShouldContainSubstring, "Alice")
				So(console.String(), ShouldNotContainSubstring, "TEAM_ABBREVIATION")
			})

			Convey("Then the run should be recorded as successful", func() {
				n, gerr := testutil.GatherAndCount(reg, "gamelogs_scraper_last_run_success")
				So(gerr, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When only the fallback season has data", func() {
			f := &fakeFetcher{tables: map[string]*model.Table{"2024-25": gameLogs()}}

			res, err := newRunner(f,
				app.WithQuery(statsapi.Query{SeasonType: "Playoffs", LeagueID: "00", DateFrom: "01/01/2025"}),
			).Run(ctx)

			Convey("Then both seasons should be tried in order", func() {
				So(err, ShouldBeNil)
				So(f.seasons(), ShouldResemble, []string{"2025-26", "2024-25"})
				So(res.Season, ShouldEqual, "2024-25")
				So(f.queries[1].SeasonType, ShouldEqual, "Playoffs")
				So(f.queries[1].DateFrom, ShouldEqual, "01/01/2025")
				So(dirEntries(dir), ShouldHaveLength, 1)
			})
		})

		Convey("When every season is empty", func() {
			f := &fakeFetcher{}

			res, err := newRunner(f, app.WithSeasons("2025-26", "2024-25", "2023-24")).Run(ctx)

			Convey("Then the run should fail without writing a file", func() {
				So(errors.Is(err, app.ErrAllSeasonsExhausted), ShouldBeTrue)
				So(app.ExitCode(err), ShouldEqual, 1)
				So(f.seasons(), ShouldResemble, []string{"2025-26", "2024-25", "2023-24"})
				So(res.Path, ShouldBeEmpty)
				So(dirEntries(dir), ShouldBeEmpty)
				So(console.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the fetched table has no date column", func() {
			f := &fakeFetcher{tables: map[string]*model.Table{
				"2025-26": {Columns: []string{"PLAYER_NAME"}, Rows: [][]any{{"Bob"}}},
			}}

			_, err := newRunner(f).Run(ctx)

			Convey("Then the post-processing error should end the run", func() {
				So(errors.Is(err, latest.ErrMissingColumn), ShouldBeTrue)
				So(app.ExitCode(err), ShouldEqual, 1)
				So(dirEntries(dir), ShouldBeEmpty)
			})
		})

		Convey("When a date cannot be parsed", func() {
			f := &fakeFetcher{tables: map[string]*model.Table{
				"2025-26": {Columns: []string{"PLAYER_NAME", "GAME_DATE"}, Rows: [][]any{{"Bob", "soon"}}},
			}}

			_, err := newRunner(f).Run(ctx)

			Convey("Then the parse error should be returned", func() {
				var perr *latest.DateParseError
				So(errors.As(err, &perr), ShouldBeTrue)
				So(dirEntries(dir), ShouldBeEmpty)
			})
		})

		Convey("When the fetch is canceled", func() {
			f := &fakeFetcher{err: context.Canceled}

			_, err := newRunner(f).Run(ctx)

			Convey("Then the cancellation should stop the season search", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(errors.Is(err, app.ErrAllSeasonsExhausted), ShouldBeFalse)
				So(f.seasons(), ShouldHaveLength, 1)
			})
		})

		Convey("When the writer fails", func() {
			f := &fakeFetcher{tables: map[string]*model.Table{"2025-26": gameLogs()}}
			r := app.New(f, failingWriter{err: errors.New("disk full")},
				app.WithConsole(&console), app.WithMetrics(m))

			_, err := r.Run(ctx)

			Convey("Then a write error should be returned and nothing previewed", func() {
				So(errors.Is(err, app.ErrWriteOutput), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "disk full")
				So(console.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the preview is disabled", func() {
			f := &fakeFetcher{tables: map[string]*model.Table{"2025-26": gameLogs()}}

			_, err := newRunner(f, app.WithPreviewRows(0)).Run(ctx)

			Convey("Then nothing should be printed", func() {
				So(err, ShouldBeNil)
				So(console.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestRunner_RunID(t *testing.T) {
	a := app.New(&fakeFetcher{}, failingWriter{})
	b := app.New(&fakeFetcher{}, failingWriter{})
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Fatalf("run IDs should be unique and non-empty: %q %q", a.RunID(), b.RunID())
	}
}

func TestExitCode(t *testing.T) {
	if got := app.ExitCode(nil); got != 0 {
		t.Fatalf("ExitCode(nil) = %d", got)
	}
	for _, err := range []error{app.ErrAllSeasonsExhausted, app.ErrEmptyAfterFilter, app.ErrWriteOutput, context.Canceled} {
		if got := app.ExitCode(err); got != 1 {
			t.Fatalf("ExitCode(%v) = %d", err, got)
		}
	}
}
