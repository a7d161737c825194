package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"decofer/core-go/internal/commconfig"
	"decofer/core-go/internal/config"
	"decofer/core-go/internal/datawarehouse"
	"decofer/core-go/internal/db"
	"decofer/core-go/internal/httpapi"
	"decofer/core-go/internal/mapper"
	"decofer/core-go/internal/metrics"
	"decofer/core-go/internal/observability"
	"decofer/core-go/internal/reference"

	"github.com/rs/zerolog"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := httpapi.NewLogger("info", "json")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	logger := httpapi.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, logger, cfg.TracingEnabled, cfg.TracingEndpoint, version)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize tracing; continuing without export")
	}

	m := metrics.New()

	refClient := reference.NewClient(cfg.ReferenceBaseURL, reference.Options{
		Token:   cfg.ReferenceAPIToken,
		Timeout: cfg.UpstreamTimeout,
		Metrics: m,
	})

	snapshots, pool, err := openSnapshotSource(ctx, logger, cfg, m)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to warehouse database")
	}
	if pool != nil {
		defer pool.Close()
	}

	svc := commconfig.NewService(logger, refClient, snapshots, mapper.NewChangeCommunicationConfigMapper(), commconfig.Options{
		Metrics: m,
	})

	h := httpapi.NewHandler(logger, svc, pool, m)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("version", version).Msg("decofer-core listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
	logger.Info().Msg("shutdown complete")
}

// openSnapshotSource picks the warehouse backend. The pool is nil unless
// snapshots are read straight from the warehouse database.
func openSnapshotSource(ctx context.Context, logger zerolog.Logger, cfg *config.Config, m *metrics.Metrics) (commconfig.SnapshotClient, *db.Pool, error) {
	if cfg.UsesWarehouseDatabase() {
		pool, err := db.Open(ctx, cfg.DWHDatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("reading ems snapshots from warehouse database")
		return datawarehouse.NewStore(pool.Queries(), m), pool, nil
	}

	logger.Info().Str("dwh_base_url", cfg.DWHBaseURL).Msg("reading ems snapshots from warehouse api")
	return datawarehouse.NewClient(cfg.DWHBaseURL, datawarehouse.Options{
		Token:   cfg.DWHAPIToken,
		Timeout: cfg.UpstreamTimeout,
		Metrics: m,
	}), nil, nil
}
