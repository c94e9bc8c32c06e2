package stubapi

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gamelogs/pkg/logger"
)

// Server answers playergamelogs queries from generated data.
type Server struct {
	cfg    Config
	logger logger.Logger

	mu       sync.Mutex
	requests int
	seasons  map[string][][]any
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request lines.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server and generates its data up front.
func New(cfg Config, opts ...Option) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:     cfg,
		logger:  logger.Discard(),
		seasons: make(map[string][][]any, len(cfg.Seasons)),
	}
	for i, season := range cfg.Seasons {
		s.seasons[season] = generateSeason(cfg, season, i)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+Path, s.handleGameLogs)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return logRequests(mux, s.logger)
}

// Requests returns how many game log requests have been received.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Rows returns a copy of the generated rows for season.
func (s *Server) Rows(season string) [][]any {
	return slices.Clone(s.seasons[season])
}

type errorBody struct {
	Message string `json:"message"`
}

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

type gameLogResponse struct {
	Resource   string            `json:"resource"`
	Parameters map[string]string `json:"parameters"`
	ResultSets []resultSet       `json:"resultSets"`
}

func (s *Server) handleGameLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := uuid.NewString()
	w.Header().Set("X-Request-Id", reqID)

	s.mu.Lock()
	s.requests++
	n := s.requests
	s.mu.Unlock()

	q := r.URL.Query()
	log := s.logger.With(logger.String("request_id", reqID), logger.Int("request", n))

	if s.cfg.Latency > 0 {
		t := time.NewTimer(s.cfg.Latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}

	if n <= s.cfg.FailFirst {
		log.Info(ctx, "injecting failure", logger.Int("status", s.cfg.FailStatus))
		writeJSON(ctx, w, s.cfg.FailStatus, errorBody{Message: http.StatusText(s.cfg.FailStatus)}, log)
		return
	}

	season := q.Get("Season")
	if season == "" {
		writeJSON(ctx, w, http.StatusBadRequest, errorBody{Message: "Season is required"}, log)
		return
	}

	rows := [][]any{}
	if data, ok := s.seasons[season]; ok && q.Get("SeasonType") != "Playoffs" {
		filtered, err := filterDates(data, q.Get("DateFrom"), q.Get("DateTo"))
		if err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, errorBody{Message: err.Error()}, log)
			return
		}
		rows = filtered
	}

	params := make(map[string]string, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}

	log.Info(ctx, "serving game logs", logger.String("season", season), logger.Int("rows", len(rows)))
	writeJSON(ctx, w, http.StatusOK, gameLogResponse{
		Resource:   "playergamelogs",
		Parameters: params,
		ResultSets: []resultSet{{Name: "PlayerGameLogs", Headers: Headers, RowSet: rows}},
	}, log)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn(ctx, "failed to write response", logger.Error(err))
	}
}
