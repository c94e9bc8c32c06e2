package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Fetch attempt outcomes used as the "outcome" label.
const (
	OutcomeSuccess           = "success"
	OutcomeTimeout           = "timeout"
	OutcomeTransport         = "transport"
	OutcomeHTTPStatus        = "http_status"
	OutcomeMalformedJSON     = "malformed_json"
	OutcomeMissingResultSets = "missing_result_sets"
	OutcomeCanceled          = "canceled"
)

// Season fetch results used as the "result" label.
const (
	SeasonResultData  = "data"
	SeasonResultEmpty = "empty"
)

// Manager owns every Prometheus series the scraper records.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         *prometheus.Registry

	// Fetcher
	fetchAttempts   *prometheus.CounterVec
	httpResponses   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	backoffWait     prometheus.Histogram

	// Orchestration
	seasonFetches *prometheus.CounterVec
	rowsFetched   prometheus.Gauge
	rowsWritten   prometheus.Gauge
	lastRunOK     prometheus.Gauge
	lastRunUnix   prometheus.Gauge
	runDuration   prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry behind globalManager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gamelogs",
		subsystem:        "scraper",
		histogramBuckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.fetchAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_attempts_total",
		Help:        "Fetch attempts against the stats API by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.httpResponses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_responses_total",
		Help:        "HTTP responses received from the stats API by status code",
		ConstLabels: labels,
	}, []string{"code"})

	m.requestDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "request_duration_seconds",
		Help:        "Duration of a single stats API request",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.backoffWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "backoff_wait_seconds",
		Help:        "Wait inserted before a retry attempt",
		Buckets:     prometheus.ExponentialBuckets(1, 2, 8),
		ConstLabels: labels,
	})

	m.seasonFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "season_fetches_total",
		Help:        "Season fetches by season and result",
		ConstLabels: labels,
	}, []string{"season", "result"})

	m.rowsFetched = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_fetched",
		Help:        "Rows in the table returned by the winning season",
		ConstLabels: labels,
	})

	m.rowsWritten = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_written",
		Help:        "Rows written to the output file",
		ConstLabels: labels,
	})

	m.lastRunOK = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_success",
		Help:        "1 if the last run wrote an output file, 0 otherwise",
		ConstLabels: labels,
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time the last run finished",
		ConstLabels: labels,
	})

	m.runDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall-clock duration of the last run",
		ConstLabels: labels,
	})
}

// RecordFetchAttempt counts one fetch attempt with its outcome.
func (m *Manager) RecordFetchAttempt(outcome string) {
	m.fetchAttempts.WithLabelValues(outcome).Inc()
}

// RecordHTTPResponse counts a response by status code.
func (m *Manager) RecordHTTPResponse(code int) {
	m.httpResponses.WithLabelValues(fmt.Sprintf("%d", code)).Inc()
}

// RecordRequestDuration observes one request duration.
func (m *Manager) RecordRequestDuration(d time.Duration) {
	m.requestDuration.Observe(d.Seconds())
}

// RecordBackoffWait observes a retry wait.
func (m *Manager) RecordBackoffWait(d time.Duration) {
	m.backoffWait.Observe(d.Seconds())
}

// RecordSeasonFetch counts a season fetch outcome.
func (m *Manager) RecordSeasonFetch(season, result string) {
	m.seasonFetches.WithLabelValues(season, result).Inc()
}

// UpdateRowsFetched sets the fetched row gauge.
func (m *Manager) UpdateRowsFetched(n int) {
	m.rowsFetched.Set(float64(n))
}

// UpdateRowsWritten sets the written row gauge.
func (m *Manager) UpdateRowsWritten(n int) {
	m.rowsWritten.Set(float64(n))
}

// RecordRunResult records the run outcome, finish time and duration.
func (m *Manager) RecordRunResult(ok bool, finished time.Time, d time.Duration) {
	if ok {
		m.lastRunOK.Set(1)
	} else {
		m.lastRunOK.Set(0)
	}
	m.lastRunUnix.Set(float64(finished.Unix()))
	m.runDuration.Set(d.Seconds())
}

// Registry returns the registry the manager records into.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every series in the text exposition format to path,
// for the node_exporter textfile collector. The write is atomic.
func (m *Manager) WriteTextfile(path string) error {
	if !m.enabled || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: textfile %s: %w", ErrExportFailed, path, err)
	}
	return nil
}

// Push sends every series to a Prometheus Pushgateway under job.
func (m *Manager) Push(ctx context.Context, url, job string) error {
	if !m.enabled || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("%w: pushgateway %s: %w", ErrExportFailed, url, err)
	}
	return nil
}

// Default returns the process-wide manager.
func Default() *Manager {
	return globalManager
}

// RecordFetchAttempt counts one fetch attempt on the global manager.
func RecordFetchAttempt(outcome string) {
	globalManager.RecordFetchAttempt(outcome)
}

// RecordHTTPResponse counts a response on the global manager.
func RecordHTTPResponse(code int) {
	globalManager.RecordHTTPResponse(code)
}

// RecordRequestDuration observes a request duration on the global manager.
func RecordRequestDuration(d time.Duration) {
	globalManager.RecordRequestDuration(d)
}

// RecordBackoffWait observes a retry wait on the global manager.
func RecordBackoffWait(d time.Duration) {
	globalManager.RecordBackoffWait(d)
}

// RecordSeasonFetch counts a season fetch on the global manager.
func RecordSeasonFetch(season, result string) {
	globalManager.RecordSeasonFetch(season, result)
}

// UpdateRowsFetched sets the fetched row gauge on the global manager.
func UpdateRowsFetched(n int) {
	globalManager.UpdateRowsFetched(n)
}

// UpdateRowsWritten sets the written row gauge on the global manager.
func UpdateRowsWritten(n int) {
	globalManager.UpdateRowsWritten(n)
}

// RecordRunResult records the run outcome on the global manager.
func RecordRunResult(ok bool, finished time.Time, d time.Duration) {
	globalManager.RecordRunResult(ok, finished, d)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
