// Package main provides the entry point for the duplicate review service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiorlabs/duplicate-review-service/internal/backend"
	"github.com/kiorlabs/duplicate-review-service/internal/config"
	"github.com/kiorlabs/duplicate-review-service/internal/observability"
	"github.com/kiorlabs/duplicate-review-service/internal/review"
	httpserver "github.com/kiorlabs/duplicate-review-service/internal/server/http"
	"github.com/kiorlabs/duplicate-review-service/internal/statscache"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("duplicate-review-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared metrics instance for the backend client and review service.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Create the project backend client.
	var backendOpts []backend.Option
	if metrics != nil {
		backendOpts = append(backendOpts, backend.WithMetrics(metrics))
	}
	backendClient := backend.New(backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Token:     cfg.Backend.Token,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		BurstSize: cfg.Backend.BurstSize,
		UserAgent: cfg.Backend.UserAgent,
	}, logger, backendOpts...)
	logger.Info().Str("base_url", cfg.Backend.BaseURL).Msg("backend client configured")

	// Pick the statistics cache: Redis for multi-node deployments,
	// in-memory otherwise.
	var statsStore statscache.Store
	if cfg.Redis.Enabled {
		redisStore, err := statscache.NewRedis(ctx, statscache.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			TTL:       cfg.Redis.TTL,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer func() {
			if closeErr := redisStore.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close redis store")
			}
		}()
		statsStore = redisStore
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis statistics cache connected")
	} else {
		statsStore = statscache.NewMemory()
	}

	// Create the review service with metrics when enabled.
	serviceOpts := []review.Option{review.WithStatsCache(statsStore)}
	if metrics != nil {
		serviceOpts = append(serviceOpts, review.WithMetrics(metrics))
	}
	reviewService := review.NewService(backendClient, logger, serviceOpts...)

	// Guard the API with bearer auth when a token is configured.
	var authMiddleware func(http.Handler) http.Handler
	if cfg.Backend.Token != "" {
		authMiddleware = httpserver.RequireBearerToken(cfg.Backend.Token)
	}

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, reviewService, logger, authMiddleware)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP API server in background.
	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("HTTP server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("duplicate-review-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down duplicate-review-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("duplicate-review-service shutdown complete")
	return nil
}
