// Package csvout persists game log tables as CSV and prints short previews.
package csvout

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/gamelogs/internal/domain/model"
	"github.com/okian/gamelogs/pkg/logger"
)

// File naming.
const (
	FilePrefix      = "nba_most_recent_games_"
	TimestampLayout = "20060102_150405"
	fileExt         = ".csv"
	maxCollisions   = 1000
)

// ErrNoFreeName is returned when every suffixed candidate already exists.
var ErrNoFreeName = errors.New("no free output file name")

// FileName returns the output name for a run started at t.
func FileName(t time.Time) string {
	return FilePrefix + t.Format(TimestampLayout) + fileExt
}

// Writer writes tables into a directory, one new file per call.
type Writer struct {
	dir    string
	now    func() time.Time
	logger logger.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock sets the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets the writer's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter creates a Writer for dir. An empty dir means the working directory.
func NewWriter(dir string, opts ...Option) *Writer {
	if dir == "" {
		dir = "."
	}
	w := &Writer{dir: dir, now: time.Now, logger: logger.Discard()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write stores t with a header row and returns the file path. The file only
// becomes visible once fully written; an existing file is never replaced.
func (w *Writer) Write(ctx context.Context, t *model.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+FilePrefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if err := encode(tmp, t); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", tmpName, err)
	}

	path, err := w.publish(tmpName)
	if err != nil {
		return "", err
	}

	w.logger.Info(ctx, "saved output file",
		logger.String("path", path),
		logger.Int("rows", t.Len()),
		logger.Int("columns", len(t.Columns)))
	return path, nil
}

// publish links tmp to the first free candidate name. os.Link fails when the
// target exists, which makes the collision check and the publish one step.
func (w *Writer) publish(tmp string) (string, error) {
	base := FileName(w.now())
	stem := base[:len(base)-len(fileExt)]

	for i := 0; i < maxCollisions; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, i, fileExt)
		}
		path := filepath.Join(w.dir, name)

		err := os.Link(tmp, path)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, os.ErrExist) {
			continue
		}
		// Filesystems without hard links: fall back to rename after a check.
		if _, statErr := os.Stat(path); statErr == nil {
			continue
		}
		if err := os.Rename(tmp, path); err != nil {
			return "", fmt.Errorf("publish %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNoFreeName, base, w.dir)
}

func encode(f *os.File, t *model.Table) error {
	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, 0, len(t.Columns))
	for i, row := range t.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, model.FormatValue(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
