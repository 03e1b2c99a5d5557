// Package main provides the entry point for the character hub service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/al3xb0/mindpal-task/internal/auth"
	"github.com/al3xb0/mindpal-task/internal/config"
	"github.com/al3xb0/mindpal-task/internal/directory"
	"github.com/al3xb0/mindpal-task/internal/favorites"
	"github.com/al3xb0/mindpal-task/internal/gateway"
	"github.com/al3xb0/mindpal-task/internal/health"
	"github.com/al3xb0/mindpal-task/internal/metrics"
	"github.com/al3xb0/mindpal-task/internal/server"
	"github.com/al3xb0/mindpal-task/internal/session"
	"github.com/al3xb0/mindpal-task/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		initLogger(config.LoggingConfig{}).Fatal("failed to load configuration", zap.Error(err))
	}

	logger := initLogger(cfg.Logging)
	defer logger.Sync()

	logger.Info("starting character hub",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("directory_endpoint", cfg.Directory.Endpoint),
		zap.String("favorites_store", cfg.FavoritesStore.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	favoritesStore, err := store.Open(ctx, cfg.FavoritesStore, logger)
	if err != nil {
		logger.Fatal("failed to open favorites store", zap.Error(err))
	}
	defer favoritesStore.Close()

	directoryClient, err := directory.NewClient(cfg.Directory, logger)
	if err != nil {
		logger.Fatal("failed to create directory client", zap.Error(err))
	}

	m := metrics.NewMetrics()
	m.SetHealthStatus(true)

	gw := gateway.NewGateway(directoryClient, m, logger)

	registry := session.NewRegistry(favoritesStore, auth.ContextIdentity{}, session.Config{
		IdleTTL:       cfg.Sessions.IdleTTL,
		SweepInterval: cfg.Sessions.SweepInterval,
		Engine: favorites.Options{
			Cooldown:     cfg.Sessions.Cooldown,
			StoreTimeout: cfg.FavoritesStore.Timeout,
			Observer:     m,
		},
		Gauge: m,
	}, logger)
	defer registry.Close()

	var jwtAuth *auth.JWTAuth
	if cfg.Auth.JWTSecret != "" {
		jwtAuth = auth.NewJWTAuth(cfg.Auth)
	} else {
		logger.Warn("auth.jwt_secret is empty, all requests are anonymous")
	}

	healthCheck := health.NewHealthCheck(favoritesStore, directoryClient, logger)

	httpServer := server.NewServer(cfg, gw, registry, jwtAuth, healthCheck, m, logger)
	httpServer.SetupRoutes()

	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)
	if metricsServer != nil {
		g.Go(metricsServer.Start)
		logger.Info("metrics server started",
			zap.Int("port", cfg.Metrics.Port),
			zap.String("path", cfg.Metrics.Path),
		)
	}

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("initiating graceful shutdown")
		m.SetHealthStatus(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown HTTP server", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown metrics server", zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("character hub shutdown complete")
}

// initLogger initializes the zap logger. LOG_LEVEL and LOG_FORMAT override
// the configured values.
func initLogger(cfg config.LoggingConfig) *zap.Logger {
	logLevel := cfg.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		logLevel = env
	}

	var level zapcore.Level
	switch logLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	logFormat := cfg.Format
	if env := os.Getenv("LOG_FORMAT"); env != "" {
		logFormat = env
	}

	var zc zap.Config
	if logFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
