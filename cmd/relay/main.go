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

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/identrelay/internal/analytics"
	"github.com/patrickwarner/identrelay/internal/api"
	"github.com/patrickwarner/identrelay/internal/config"
	"github.com/patrickwarner/identrelay/internal/geoip"
	"github.com/patrickwarner/identrelay/internal/identification"
	"github.com/patrickwarner/identrelay/internal/middleware"
	"github.com/patrickwarner/identrelay/internal/observability"
)

func main() {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := observability.InitLogger(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	if cfg.APIKey == "" {
		// requests are still served and answered with a configuration error
		logger.Warn("identification API key not configured")
	}

	metricsRegistry := observability.NewPrometheusRegistry()

	var sinks []analytics.Recorder
	if cfg.ClickHouseDSN != "" {
		ch, err := analytics.InitClickHouse(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("failed to connect clickhouse: %w", err)
		}
		sinks = append(sinks, ch)
	}
	if cfg.RedisAddr != "" {
		pub, err := analytics.InitRedis(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		sinks = append(sinks, pub)
	}
	recorder := analytics.NewMultiRecorder(metricsRegistry, sinks...)
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Error("close analytics sinks", zap.Error(err))
		}
	}()

	var geoSvc *geoip.GeoIP
	if cfg.GeoIPDB != "" {
		g, err := geoip.Init(cfg.GeoIPDB)
		if err != nil {
			return fmt.Errorf("failed to load geoip db: %w", err)
		}
		geoSvc = g
		defer func() { _ = geoSvc.Close() }()
	}

	client := identification.NewClient(cfg.IdentificationEndpoint, logger, metricsRegistry)
	srvDeps := api.NewServer(logger, cfg, client, recorder, geoSvc, metricsRegistry)

	r := mux.NewRouter()
	r.Use(middleware.WithRequestID, middleware.WithTraceLogger(logger))
	r.HandleFunc("/identify", srvDeps.IdentifyHandler).Methods("POST")
	r.HandleFunc("/api/identify", srvDeps.IdentifyHandler).Methods("POST")
	r.HandleFunc("/health", srvDeps.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.ServiceName),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Identification relay running",
		zap.String("addr", addr),
		zap.String("upstream", cfg.IdentificationEndpoint),
		zap.Int("sinks", recorder.Len()))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	// flush background events before the deferred recorder close
	if err := srvDeps.WaitForEvents(shutdownCtx); err != nil {
		logger.Warn("identification events still pending at shutdown", zap.Error(err))
	}

	return nil
}
