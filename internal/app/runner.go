// Package app runs one fetch: try each season until one has data, keep the
// most recent date's rows, write them to CSV and print a preview.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gamelogs/internal/adapters/csvout"
	"github.com/okian/gamelogs/internal/adapters/statsapi"
	"github.com/okian/gamelogs/internal/domain/latest"
	"github.com/okian/gamelogs/internal/domain/model"
	"github.com/okian/gamelogs/pkg/logger"
	"github.com/okian/gamelogs/pkg/metrics"
)

// Fetcher returns the game log table for a query. An empty table means the
// season had no data or every attempt failed.
type Fetcher interface {
	Fetch(ctx context.Context, q statsapi.Query) (*model.Table, error)
}

// TableWriter persists a table and returns where it went.
type TableWriter interface {
	Write(ctx context.Context, t *model.Table) (string, error)
}

// DefaultSeasons are tried in order, newest first.
var DefaultSeasons = []string{"2025-26", "2024-25"} //nolint:gochecknoglobals // default fallback order

var possibleCauses = []string{ //nolint:gochecknoglobals // fixed diagnostic text
	"the stats API may be blocking requests from this address (common for cloud CI runners)",
	"the API endpoint or its parameters may have changed",
	"network connectivity issues",
	"the season may not have started yet",
}

// Result describes a finished run.
type Result struct {
	RunID         string
	Season        string // season that returned data
	FetchedRows   int
	UniquePlayers int // across the fetched table
	Latest        latest.Summary
	Path          string
	Duration      time.Duration
}

// Runner drives a single run.
type Runner struct {
	fetcher     Fetcher
	writer      TableWriter
	seasons     []string
	query       statsapi.Query
	previewRows int
	console     io.Writer
	logger      logger.Logger
	metrics     *metrics.Manager
	runID       string
	now         func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSeasons sets the season fallback order.
func WithSeasons(seasons ...string) Option {
	return func(r *Runner) {
		if len(seasons) > 0 {
			r.seasons = append([]string(nil), seasons...)
		}
	}
}

// WithQuery sets the query fields shared by every season. Its Season is
// ignored.
func WithQuery(q statsapi.Query) Option {
	return func(r *Runner) {
		r.query = q
	}
}

// WithPreviewRows sets how many rows the console preview shows. Zero turns
// the preview off.
func WithPreviewRows(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.previewRows = n
		}
	}
}

// WithConsole sets where the preview is printed.
func WithConsole(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.console = w
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records into m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Runner.
func New(fetcher Fetcher, writer TableWriter, opts ...Option) *Runner {
	r := &Runner{
		fetcher:     fetcher,
		writer:      writer,
		seasons:     append([]string(nil), DefaultSeasons...),
		query:       statsapi.Query{SeasonType: "Regular Season", LeagueID: "00"},
		previewRows: csvout.DefaultPreviewRows,
		console:     os.Stdout,
		logger:      logger.Discard(),
		metrics:     metrics.Default(),
		runID:       uuid.NewString(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID returns the ID attached to this runner's log lines.
func (r *Runner) RunID() string { return r.runID }

// Run executes the run. The returned Result is never nil and holds whatever
// was learned before a failure.
func (r *Runner) Run(ctx context.Context) (res *Result, err error) {
	start := r.now()
	log := r.logger.With(logger.String("run_id", r.runID))
	res = &Result{RunID: r.runID}

	defer func() {
		end := r.now()
		res.Duration = end.Sub(start)
		r.metrics.RecordRunResult(err == nil, end, res.Duration)
		if err != nil {
			log.Error(ctx, "run failed", logger.Error(err), logger.Duration("elapsed", res.Duration))
			return
		}
		log.Info(ctx, "run finished", logger.String("path", res.Path), logger.Duration("elapsed", res.Duration))
	}()

	log.Info(ctx, "starting game log fetch",
		logger.String("seasons", strings.Join(r.seasons, ",")),
		logger.String("season_type", r.query.SeasonType))

	table, season, err := r.searchSeasons(ctx, log)
	if err != nil {
		if errors.Is(err, ErrAllSeasonsExhausted) {
			r.logDiagnostics(ctx, log)
		}
		return res, err
	}

	res.Season = season
	res.FetchedRows = table.Len()
	res.UniquePlayers = table.CountDistinct(model.ColPlayerName)
	r.metrics.UpdateRowsFetched(res.FetchedRows)
	log.Info(ctx, "fetched game logs",
		logger.String("season", season),
		logger.Int("total_entries", res.FetchedRows),
		logger.Int("unique_players", res.UniquePlayers))

	selected, err := latest.SelectLatest(table)
	if err != nil {
		return res, fmt.Errorf("select most recent games: %w", err)
	}
	if selected.Empty() {
		return res, ErrEmptyAfterFilter
	}

	res.Latest = latest.Summarize(selected)
	log.Info(ctx, "selected most recent games",
		logger.String("game_date", res.Latest.Date.Format("2006-01-02")),
		logger.Int("games", res.Latest.Rows),
		logger.Int("players", res.Latest.UniquePlayers))

	path, err := r.writer.Write(ctx, selected)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	res.Path = path
	r.metrics.UpdateRowsWritten(selected.Len())

	r.preview(ctx, log, selected)
	return res, nil
}

// searchSeasons returns the first non-empty table in season order.
func (r *Runner) searchSeasons(ctx context.Context, log logger.Logger) (*model.Table, string, error) {
	for i, season := range r.seasons {
		log.Info(ctx, "trying season", logger.String("season", season))

		q := r.query
		q.Season = season
		table, err := r.fetcher.Fetch(ctx, q)
		if err != nil {
			return nil, "", err
		}

		if !table.Empty() {
			r.metrics.RecordSeasonFetch(season, metrics.SeasonResultData)
			log.Info(ctx, "found data", logger.String("season", season), logger.Int("rows", table.Len()))
			return table, season, nil
		}

		r.metrics.RecordSeasonFetch(season, metrics.SeasonResultEmpty)
		if i < len(r.seasons)-1 {
			log.Warn(ctx, "no data for season, trying fallback",
				logger.String("season", season),
				logger.String("next", r.seasons[i+1]))
		}
	}
	return nil, "", fmt.Errorf("%w: tried %s", ErrAllSeasonsExhausted, strings.Join(r.seasons, ", "))
}

func (r *Runner) logDiagnostics(ctx context.Context, log logger.Logger) {
	log.Error(ctx, "failed to retrieve data from any season")
	for i, cause := range possibleCauses {
		log.Warn(ctx, "possible issue", logger.Int("n", i+1), logger.String("cause", cause))
	}
}

func (r *Runner) preview(ctx context.Context, log logger.Logger, t *model.Table) {
	if r.previewRows == 0 {
		return
	}
	if _, err := fmt.Fprintf(r.console, "\nPreview (first %d rows):\n", r.previewRows); err != nil {
		log.Warn(ctx, "failed to print preview", logger.Error(err))
		return
	}
	if err := csvout.Preview(r.console, t, r.previewRows); err != nil {
		log.Warn(ctx, "failed to print preview", logger.Error(err))
	}
}
