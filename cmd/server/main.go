package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/bossing/basket-service/config"
	_ "github.com/bossing/basket-service/docs"
	"github.com/bossing/basket-service/internal/handlers"
	"github.com/bossing/basket-service/internal/middleware"
	"github.com/bossing/basket-service/internal/optimizer"
	"github.com/bossing/basket-service/internal/telemetry"
)

// @title Basket Service API
// @version 1.0
// @description Compares the cost of a shopping basket across supermarkets.
// @BasePath /
func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)
	log.Logger = *logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Server exited")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	logger.Info().Str("catalog_source", cfg.Catalog.Source).Msg("Starting basket service")

	if cfg.Telemetry.Endpoint != "" {
		cfg.Telemetry.Enabled = true
	}
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	cat, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cat.Close()

	breaker := optimizer.NewCircuitBreaker("catalog", cfg.Optimizer.BreakerConfig(), nil,
		logger.With().Str("component", "circuit_breaker").Logger())
	provider := optimizer.NewGuardedProvider(cat.provider, breaker)
	gate := optimizer.NewWarmupGate(logger.With().Str("component", "warmup").Logger())
	go cat.warmup(ctx, gate, logger)

	svc := optimizer.NewService(provider, &cfg.Optimizer, optimizer.WithWarmupGate(gate))

	opts := []handlers.Option{handlers.WithBreaker(breaker), handlers.WithWarmupGate(gate)}
	if cat.cache != nil {
		opts = append(opts, handlers.WithRefresher(cat.cache))
	}
	h := handlers.New(svc, provider, opts...)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit)
	go limiter.Run(ctx, time.Minute)

	router := newRouter(cfg, logger, h, limiter)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	return nil
}

func newRouter(cfg *config.Config, logger *zerolog.Logger, h *handlers.Handler, limiter *middleware.IPRateLimiter) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(
		middleware.Tracing(cfg.Telemetry.ServiceName),
		middleware.RequestID(*logger),
		middleware.TraceAttributes(),
		middleware.RequestLogger("/health", "/metrics"),
		middleware.HTTPMetrics(),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	public := router.Group("/", middleware.RateLimit(limiter), middleware.RequestTimeout(cfg.Server.RequestTimeout))
	h.Register(public)

	admin := router.Group("/api/admin", middleware.InternalAuth(cfg.InternalAPIKey))
	h.RegisterAdmin(admin)

	return router
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer = os.Stdout
	if cfg.Format != "json" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "basket-service").Logger()
	return &logger
}
