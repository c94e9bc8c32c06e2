// Package statsapi fetches player game logs from the stats.nba.com API.
//
// Each Fetch makes up to MaxAttempts GET requests. Failed attempts are
// classified (timeout, transport, HTTP status, malformed body) and retried
// after a backoff wait. Running out of attempts is not an error: Fetch then
// returns an empty table so the caller can move on to another season.
package statsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/okian/gamelogs/internal/domain/backoff"
	"github.com/okian/gamelogs/internal/domain/model"
	"github.com/okian/gamelogs/pkg/logger"
	"github.com/okian/gamelogs/pkg/metrics"
)

const errorBodyLimit = 512

// Client fetches game log tables with retry and backoff.
type Client struct {
	cfg     RequestConfig
	doer    Doer
	policy  backoff.Policy
	sleep   backoff.Sleeper
	logger  logger.Logger
	metrics *metrics.Manager
	maxBody int64
}

// New creates a Client. Zero fields in cfg take the package defaults.
func New(cfg RequestConfig, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:     cfg,
		doer:    &http.Client{}, // per-attempt timeout comes from the request context
		policy:  backoff.Exponential(cfg.BackoffBase, cfg.RateLimitCooldown, IsRateLimited, cfg.MaxBackoff),
		sleep:   backoff.Sleep,
		logger:  logger.Discard(),
		metrics: metrics.Default(),
		maxBody: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attempt records one request.
type Attempt struct {
	Number   int           // 1-based
	Wait     time.Duration // backoff slept before this attempt
	Duration time.Duration // request time
	Err      error         // nil on success
}

// Report describes a whole Fetch.
type Report struct {
	Season    string
	Attempts  []Attempt
	Elapsed   time.Duration
	Succeeded bool
}

// Fetch returns the first result set for q, or an empty table once every
// attempt has failed. The only error returned is the context's.
func (c *Client) Fetch(ctx context.Context, q Query) (*model.Table, error) {
	table, _, err := c.FetchWithReport(ctx, q)
	return table, err
}

// FetchWithReport is Fetch plus a record of every attempt.
func (c *Client) FetchWithReport(ctx context.Context, q Query) (*model.Table, *Report, error) {
	start := time.Now()
	report := &Report{Season: q.Season}
	reqURL := c.cfg.Endpoint + "?" + q.Values().Encode()
	log := c.logger.With(logger.String("season", q.Season), logger.String("season_type", q.SeasonType))
	maxAttempts := c.cfg.MaxAttempts

	finish := func(t *model.Table, err error) (*model.Table, *Report, error) {
		report.Elapsed = time.Since(start)
		return t, report, err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		log.Info(ctx, "fetch attempt", logger.Int("attempt", attempt+1), logger.Int("max_attempts", maxAttempts))

		var wait time.Duration
		if attempt > 0 {
			wait = c.policy(attempt, lastErr)
			log.Info(ctx, "waiting before retry", logger.Duration("wait", wait))
			c.metrics.RecordBackoffWait(wait)
			if err := c.sleep(ctx, wait); err != nil {
				return finish(&model.Table{}, err)
			}
		}

		began := time.Now()
		table, err := c.do(ctx, reqURL)
		took := time.Since(began)
		c.metrics.RecordRequestDuration(took)
		report.Attempts = append(report.Attempts, Attempt{Number: attempt + 1, Wait: wait, Duration: took, Err: err})

		if err == nil {
			c.metrics.RecordFetchAttempt(metrics.OutcomeSuccess)
			report.Succeeded = true
			log.Info(ctx, "retrieved data",
				logger.Int("attempt", attempt+1),
				logger.Int("rows", table.Len()),
				logger.Int("columns", len(table.Columns)))
			return finish(table, nil)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			c.metrics.RecordFetchAttempt(metrics.OutcomeCanceled)
			return finish(&model.Table{}, ctxErr)
		}

		c.metrics.RecordFetchAttempt(outcome(err))
		c.logFailure(ctx, log, attempt+1, err)
		lastErr = err

		if attempt < maxAttempts-1 {
			log.Info(ctx, "retrying")
		}
	}

	log.Warn(ctx, "failed after all attempts", logger.Int("attempts", maxAttempts), logger.Error(lastErr))
	return finish(&model.Table{}, nil)
}

// do performs a single GET and validates the response.
func (c *Client) do(ctx context.Context, reqURL string) (*model.Table, error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	for k, v := range c.cfg.Headers {
		// Setting Accept-Encoding by hand turns off transparent gzip
		// decoding in net/http, so the transport negotiates it instead.
		if strings.EqualFold(k, "Accept-Encoding") {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	c.metrics.RecordHTTPResponse(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > errorBodyLimit {
			snippet = snippet[:errorBodyLimit]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet}
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedJSON, c.maxBody)
	}

	return decodeTable(body)
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return metrics.OutcomeHTTPStatus
	case errors.Is(err, ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, ErrMalformedJSON):
		return metrics.OutcomeMalformedJSON
	case errors.Is(err, ErrMissingResultSets):
		return metrics.OutcomeMissingResultSets
	default:
		return metrics.OutcomeTransport
	}
}

func (c *Client) logFailure(ctx context.Context, log logger.Logger, attempt int, err error) {
	n := logger.Int("attempt", attempt)

	var se *StatusError
	switch {
	case errors.As(err, &se):
		fields := []logger.Field{n, logger.Int("status", se.Code)}
		switch {
		case se.Blocked():
			log.Warn(ctx, "HTTP error: forbidden, client may be blocked", fields...)
		case se.RateLimited():
			log.Warn(ctx, "HTTP error: rate limited", append(fields, logger.Duration("cooldown", c.cfg.RateLimitCooldown))...)
		default:
			log.Warn(ctx, "HTTP error", fields...)
		}
	case errors.Is(err, ErrTimeout):
		log.Warn(ctx, "request timed out", n, logger.Duration("timeout", c.cfg.Timeout))
	case errors.Is(err, ErrMalformedJSON):
		log.Warn(ctx, "invalid JSON response", n, logger.Error(err))
	case errors.Is(err, ErrMissingResultSets):
		log.Warn(ctx, "response missing expected data structure", n, logger.Error(err))
	default:
		log.Warn(ctx, "request error", n, logger.Error(err))
	}
}
