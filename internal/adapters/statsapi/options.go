package statsapi

import (
	"net/http"
	"time"

	"github.com/okian/gamelogs/internal/domain/backoff"
	"github.com/okian/gamelogs/pkg/logger"
	"github.com/okian/gamelogs/pkg/metrics"
)

// Default request settings.
const (
	DefaultEndpoint          = "https://stats.nba.com/stats/playergamelogs"
	DefaultTimeout           = 30 * time.Second
	DefaultMaxAttempts       = 5
	DefaultBackoffBase       = 2.0
	DefaultRateLimitCooldown = 10 * time.Second
	defaultMaxBodyBytes      = 128 << 20
)

// RequestConfig is the fixed request setup shared by every attempt.
type RequestConfig struct {
	Endpoint          string
	Headers           map[string]string
	Timeout           time.Duration
	MaxAttempts       int
	BackoffBase       float64
	MaxBackoff        time.Duration // zero means uncapped
	RateLimitCooldown time.Duration
}

// withDefaults fills zero fields and copies Headers so later changes by the
// caller cannot leak into a running client.
func (c RequestConfig) withDefaults() RequestConfig {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffBase < 1 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.RateLimitCooldown <= 0 {
		c.RateLimitCooldown = DefaultRateLimitCooldown
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	c.Headers = headers
	return c
}

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithSleeper replaces the wait primitive used between attempts.
func WithSleeper(s backoff.Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithPolicy replaces the backoff policy built from RequestConfig.
func WithPolicy(p backoff.Policy) Option {
	return func(c *Client) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithLogger sets the logger for per-attempt progress.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records into m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithMaxBodyBytes bounds how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}
