package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/gamelogs/internal/stubapi"
	"github.com/okian/gamelogs/pkg/logger"
)

// HTTP server timeout constants.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:9180", "listen address")
		seasons    = flag.String("seasons", "2025-26", "comma-separated seasons that have data")
		days       = flag.Int("days", stubapi.DefaultDays, "distinct game dates per season")
		lastDate   = flag.String("last-date", "", "most recent game date, YYYY-MM-DD (default yesterday)")
		seed       = flag.Uint64("seed", 1, "random seed for generated rows")
		failFirst  = flag.Int("fail-first", 0, "fail this many requests before serving data")
		failStatus = flag.Int("fail-status", stubapi.DefaultFailStatus, "HTTP status for injected failures")
		latency    = flag.Duration("latency", 0, "delay before every response")
		logFormat  = flag.String("log-format", "text", "log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("stub")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := stubapi.Config{
		Seasons:    strings.Split(*seasons, ","),
		Days:       *days,
		Seed:       *seed,
		FailFirst:  *failFirst,
		FailStatus: *failStatus,
		Latency:    *latency,
	}
	if *lastDate != "" {
		d, err := time.Parse("2006-01-02", *lastDate)
		if err != nil {
			log.Error(ctx, "invalid -last-date", logger.String("value", *lastDate), logger.Error(err))
			os.Exit(1)
		}
		cfg.LastDate = d
	}

	stub := stubapi.New(cfg, stubapi.WithLogger(log))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           stub.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting stub stats API",
			logger.String("addr", *addr),
			logger.String("endpoint", "http://"+*addr+stubapi.Path),
			logger.String("seasons", *seasons))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down stub...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "stub stopped", logger.Int("requests", stub.Requests()))
}
