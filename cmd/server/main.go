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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kosarica/price-aggregator/config"
	"github.com/kosarica/price-aggregator/internal/analytics"
	"github.com/kosarica/price-aggregator/internal/app"
	"github.com/kosarica/price-aggregator/internal/handlers"
	"github.com/kosarica/price-aggregator/internal/middleware"
	"github.com/kosarica/price-aggregator/internal/optimizer"
	"github.com/kosarica/price-aggregator/internal/sweepers"
	"github.com/kosarica/price-aggregator/internal/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logging.Logger(telemetry.DefaultServiceName)

	logger.Info().Str("version", version).Msg("Starting price aggregator")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = version
	}
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to open analytics store")
	}
	logger.Info().Str("backend", store.Name()).Msg("Analytics store ready")

	recorder := analytics.NewAsyncRecorder(store, cfg.Storage.Recorder)
	recorder.Start()

	var sweeper *sweepers.RetentionSweeper
	if cfg.Storage.Retention > 0 {
		sweeper = sweepers.NewRetentionSweeper(store, logger, cfg.Storage.SweepInterval, cfg.Storage.Retention)
		go sweeper.Start(ctx)
	}

	pipeline, err := app.BuildPipeline(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build aggregation pipeline")
	}
	logger.Info().
		Int("adapters", len(pipeline.Adapters.List())).
		Str("fetcher", pipeline.Fetcher.Name()).
		Msg("Adapters registered")

	api := handlers.NewAPI(
		pipeline.Orchestrator,
		pipeline.Availability,
		optimizer.NewService(&cfg.Optimizer),
		store,
		recorder,
		handlers.Options{
			SearchTimeout:   cfg.Server.SearchTimeout,
			CartConcurrency: cfg.Server.CartConcurrency,
			Version:         version,
		},
	)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit)
	go limiter.RunCleanup(ctx, time.Minute)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(middleware.CORSConfig{AllowOrigins: cfg.Server.CORSOrigins}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.RegisterDocs(router)

	public := router.Group("/")
	public.Use(middleware.RateLimitMiddleware(limiter))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.Server.InternalAPIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))

	api.Register(public, internal)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(router, "http.server"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	recorder.Stop()
	if n := recorder.Dropped(); n > 0 {
		logger.Warn().Int64("dropped", n).Msg("Analytics records dropped")
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to close analytics store")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown telemetry")
	}

	logger.Info().Msg("Server exited")
}
