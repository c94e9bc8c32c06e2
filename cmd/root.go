package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gamelogs/internal/adapters/csvout"
	"github.com/okian/gamelogs/internal/adapters/statsapi"
	"github.com/okian/gamelogs/internal/app"
	"github.com/okian/gamelogs/internal/config"
	"github.com/okian/gamelogs/pkg/logger"
	"github.com/okian/gamelogs/pkg/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // build-time stamp

const metricsPushTimeout = 10 * time.Second

// flags holds command-line overrides applied on top of the loaded config.
type flags struct {
	configPath  string
	logLevel    string
	seasons     []string
	outputDir   string
	maxAttempts int
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "gamelogs",
		Short: "Fetch the most recent NBA player game logs into a CSV file",
		Long: `gamelogs queries the stats.nba.com playergamelogs endpoint, falling back
through the configured seasons until one returns data. It keeps the rows from
the most recent game date, sorted by player name, and writes them to
nba_most_recent_games_<YYYYMMDD_HHMMSS>.csv.`,
		SilenceUsage: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGamelogs(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "config file path (default $GAMELOGS_CONFIG)")
	pf.StringVarP(&f.logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	root.Flags().StringArrayVar(&f.seasons, "season", nil, "season to try, repeatable, in fallback order (e.g. 2025-26)")
	root.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "directory for the CSV file")
	root.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "request attempts per season")

	root.AddCommand(newVersionCmd(), newConfigCmd(f))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gamelogs %s\n", version)
		},
	}
}

func newConfigCmd(f *flags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "configuration is valid")
			fmt.Fprintf(out, "  endpoint:     %s\n", cfg.Endpoint)
			fmt.Fprintf(out, "  seasons:      %v\n", cfg.Seasons)
			fmt.Fprintf(out, "  season type:  %s\n", cfg.SeasonType)
			fmt.Fprintf(out, "  max attempts: %d\n", cfg.MaxAttempts)
			fmt.Fprintf(out, "  output dir:   %s\n", cfg.OutputDir)
			return nil
		},
	})
	return configCmd
}

// loadConfig loads the layered config and applies flags that were set.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), f.configPath)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fl.Lookup("season") != nil && fl.Changed("season") {
		cfg.Seasons = f.seasons
	}
	if fl.Lookup("output-dir") != nil && fl.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if fl.Lookup("max-attempts") != nil && fl.Changed("max-attempts") {
		cfg.MaxAttempts = f.maxAttempts
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runGamelogs(cmd *cobra.Command, f *flags) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	client := statsapi.New(statsapi.RequestConfig{
		Endpoint:          cfg.Endpoint,
		Headers:           cfg.Headers,
		Timeout:           cfg.RequestTimeout,
		MaxAttempts:       cfg.MaxAttempts,
		BackoffBase:       cfg.BackoffBase,
		MaxBackoff:        cfg.MaxBackoff,
		RateLimitCooldown: cfg.RateLimitCooldown,
	}, statsapi.WithLogger(log.With(logger.String("component", "fetcher"))))

	writer := csvout.NewWriter(cfg.OutputDir, csvout.WithLogger(log.With(logger.String("component", "output"))))

	runner := app.New(client, writer,
		app.WithSeasons(cfg.Seasons...),
		app.WithQuery(statsapi.Query{
			SeasonType: cfg.SeasonType,
			LeagueID:   cfg.LeagueID,
			DateFrom:   cfg.DateFrom,
			DateTo:     cfg.DateTo,
		}),
		app.WithPreviewRows(cfg.PreviewRows),
		app.WithConsole(cmd.OutOrStdout()),
		app.WithLogger(log),
	)

	_, runErr := runner.Run(ctx)
	flushMetrics(ctx, cfg, log.With(logger.String("run_id", runner.RunID())))
	_ = logger.Sync()
	return runErr
}

// flushMetrics exports the run's series. Export failures are logged and do
// not change the exit code.
func flushMetrics(ctx context.Context, cfg *config.Config, log logger.Logger) {
	m := metrics.Default()

	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Warn(ctx, "failed to write metrics textfile", logger.String("path", cfg.MetricsTextfile), logger.Error(err))
		} else {
			log.Debug(ctx, "wrote metrics textfile", logger.String("path", cfg.MetricsTextfile))
		}
	}

	if cfg.PushgatewayURL != "" {
		// The run context may already be canceled; the push gets its own deadline.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsPushTimeout)
		defer cancel()
		if err := m.Push(pctx, cfg.PushgatewayURL, cfg.PushJob); err != nil {
			log.Warn(ctx, "failed to push metrics", logger.String("url", cfg.PushgatewayURL), logger.Error(err))
		} else {
			log.Debug(ctx, "pushed metrics", logger.String("url", cfg.PushgatewayURL), logger.String("job", cfg.PushJob))
		}
	}
}
