package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/gamelogs/internal/app"
	"github.com/okian/gamelogs/internal/config"
	"github.com/okian/gamelogs/internal/stubapi"
	"github.com/smartystreets/goconvey/convey"
)

func execute(args ...string) (string, string, error) {
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func startStub(t *testing.T, seasons ...string) string {
	t.Helper()
	stub := stubapi.New(stubapi.Config{
		Seasons:  seasons,
		LastDate: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Seed:     1,
	})
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)
	return srv.URL + stubapi.Path
}

func TestRunCommand(t *testing.T) {
	convey.Convey("Given a stub API serving only the fallback season", t, func() {
		t.Setenv("GAMELOGS_ENDPOINT", startStub(t, "2024-25"))
		t.Setenv("GAMELOGS_CONFIG", "")
		dir := t.TempDir()
		textfile := filepath.Join(t.TempDir(), "gamelogs.prom")
		t.Setenv("GAMELOGS_METRICS_TEXTFILE", textfile)

		convey.Convey("When running with both seasons", func() {
			stdout, stderr, err := execute("--season", "2025-26", "--season", "2024-25", "--output-dir", dir)

			convey.Convey("Then one CSV of the latest games should be written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(app.ExitCode(err), convey.ShouldEqual, 0)

				entries, readErr := os.ReadDir(dir)
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(entries, convey.ShouldHaveLength, 1)
				convey.So(entries[0].Name(), convey.ShouldStartWith, "nba_most_recent_games_")
				convey.So(entries[0].Name(), convey.ShouldEndWith, ".csv")

				data, _ := os.ReadFile(filepath.Join(dir, entries[0].Name()))
				lines := strings.Split(strings.TrimSpace(string(data)), "\n")
				convey.So(lines[0], convey.ShouldStartWith, "SEASON_YEAR,PLAYER_ID,PLAYER_NAME")
				for _, line := range lines[1:] {
					convey.So(line, convey.ShouldContainSubstring, "2025-03-02T00:00:00")
				}
			})

			convey.Convey("Then the preview and progress should be printed", func() {
				convey.So(stdout, convey.ShouldContainSubstring, "Preview (first 10 rows):")
				convey.So(stdout, convey.ShouldContainSubstring, "PLAYER_NAME")
				convey.So(stdout, convey.ShouldNotContainSubstring, "TEAM_ID")
				convey.So(stderr, convey.ShouldContainSubstring, "no data for season, trying fallback")
				convey.So(stderr, convey.ShouldContainSubstring, "run_id=")
			})

			convey.Convey("Then the metrics textfile should be written", func() {
				data, readErr := os.ReadFile(textfile)
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "gamelogs_scraper_last_run_success 1")
			})
		})

		convey.Convey("When no requested season has data", func() {
			_, stderr, err := execute("--season", "2025-26", "--output-dir", dir)

			convey.Convey("Then the run should fail without output", func() {
				convey.So(errors.Is(err, app.ErrAllSeasonsExhausted), convey.ShouldBeTrue)
				convey.So(app.ExitCode(err), convey.ShouldEqual, 1)
				convey.So(stderr, convey.ShouldContainSubstring, "possible issue")
				entries, _ := os.ReadDir(dir)
				convey.So(entries, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestConfigValidateCommand(t *testing.T) {
	convey.Convey("Given the config validate command", t, func() {
		t.Setenv("GAMELOGS_CONFIG", "")

		convey.Convey("When the configuration is valid", func() {
			t.Setenv("GAMELOGS_MAX_ATTEMPTS", "3")
			stdout, _, err := execute("config", "validate")

			convey.So(err, convey.ShouldBeNil)
			convey.So(stdout, convey.ShouldContainSubstring, "configuration is valid")
			convey.So(stdout, convey.ShouldContainSubstring, "max attempts: 3")
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("GAMELOGS_MAX_ATTEMPTS", "0")
			_, stderr, err := execute("config", "validate")

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(app.ExitCode(err), convey.ShouldEqual, 1)
			convey.So(stderr, convey.ShouldContainSubstring, "Error:")
		})
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute("version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if stdout != "gamelogs dev\n" {
		t.Fatalf("version output = %q", stdout)
	}
}

func TestUnknownFlag(t *testing.T) {
	_, stderr, err := execute("--no-such-flag")
	if err == nil || app.ExitCode(err) != 1 {
		t.Fatalf("unknown flag should fail, got %v", err)
	}
	if !strings.Contains(stderr, "unknown flag") {
		t.Fatalf("stderr = %q", stderr)
	}
}
