// Package config defines the scraper configuration and its loading hooks.
//
// Conventions:
//   - New returns a Config filled with defaults.
//   - Load layers defaults, an optional YAML file and GAMELOGS_* env vars.
//   - Validate reports problems wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default request headers. The stats API rejects requests that do not look
// like they came from the nba.com site.
var defaultHeaders = map[string]string{ //nolint:gochecknoglobals // copied into every New()
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":             "application/json, text/plain, */*",
	"Accept-Language":    "en-US,en;q=0.9",
	"Referer":            "https://www.nba.com/",
	"Origin":             "https://www.nba.com",
	"Connection":         "keep-alive",
	"x-nba-stats-origin": "stats",
	"x-nba-stats-token":  "true",
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Endpoint is the player game log URL.
	Endpoint string `koanf:"endpoint"`
	// Seasons are tried in order until one returns rows.
	Seasons    []string `koanf:"seasons"`
	SeasonType string   `koanf:"season_type"`
	LeagueID   string   `koanf:"league_id"`
	DateFrom   string   `koanf:"date_from"`
	DateTo     string   `koanf:"date_to"`

	// Headers are sent with every request.
	Headers map[string]string `koanf:"headers"`

	MaxAttempts int     `koanf:"max_attempts"`
	BackoffBase float64 `koanf:"backoff_base"`
	// MaxBackoff caps the exponential wait. Zero leaves it uncapped.
	MaxBackoff        time.Duration `koanf:"max_backoff"`
	RateLimitCooldown time.Duration `koanf:"rate_limit_cooldown"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`

	// OutputDir receives nba_most_recent_games_<stamp>.csv.
	OutputDir   string `koanf:"output_dir"`
	PreviewRows int    `koanf:"preview_rows"`

	// MetricsTextfile, when set, receives a Prometheus textfile at exit.
	MetricsTextfile string `koanf:"metrics_textfile"`
	// PushgatewayURL, when set, receives the run's metrics at exit.
	PushgatewayURL string `koanf:"pushgateway_url"`
	PushJob        string `koanf:"push_job"`
}

// New creates a Config populated with defaults.
func New() *Config {
	headers := make(map[string]string, len(defaultHeaders))
	for k, v := range defaultHeaders {
		headers[k] = v
	}

	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Endpoint:          "https://stats.nba.com/stats/playergamelogs",
		Seasons:           []string{"2025-26", "2024-25"},
		SeasonType:        "Regular Season",
		LeagueID:          "00",
		Headers:           headers,
		MaxAttempts:       5,
		BackoffBase:       2,
		RateLimitCooldown: 10 * time.Second,
		RequestTimeout:    30 * time.Second,
		OutputDir:         ".",
		PreviewRows:       10,
		PushJob:           "gamelogs",
	}
}

// Validate checks the values the scraper cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint must not be empty", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q is not an absolute URL", ErrInvalidConfig, c.Endpoint)
	}
	if len(c.Seasons) == 0 {
		return fmt.Errorf("%w: at least one season is required", ErrInvalidConfig)
	}
	for _, s := range c.Seasons {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: seasons must not contain blanks", ErrInvalidConfig)
		}
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be >= 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.BackoffBase < 1 {
		return fmt.Errorf("%w: backoff_base must be >= 1, got %g", ErrInvalidConfig, c.BackoffBase)
	}
	if c.MaxBackoff < 0 || c.RateLimitCooldown < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	if c.PreviewRows < 0 {
		return fmt.Errorf("%w: preview_rows must not be negative", ErrInvalidConfig)
	}
	return nil
}
