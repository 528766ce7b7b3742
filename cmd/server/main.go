// Command tasksync-server starts the task sync HTTP/WebSocket server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dkorzhov/tasksync/internal/config"
	"github.com/dkorzhov/tasksync/internal/coordinator"
	"github.com/dkorzhov/tasksync/internal/events"
	"github.com/dkorzhov/tasksync/internal/limiter"
	"github.com/dkorzhov/tasksync/internal/migrate"
	"github.com/dkorzhov/tasksync/internal/registry"
	"github.com/dkorzhov/tasksync/internal/repository/postgres"
	httpserver "github.com/dkorzhov/tasksync/internal/server/http"
	"github.com/dkorzhov/tasksync/internal/service"
	"github.com/dkorzhov/tasksync/internal/suggest"
	"github.com/dkorzhov/tasksync/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves until a signal.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Address),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	userRepo := postgres.NewUserRepo(db)
	taskRepo := postgres.NewTaskRepo(db)

	lim := limiter.NewPG(pool, 15*time.Minute, 5, 15*time.Minute)

	// Services
	tokens := token.NewManager([]byte(cfg.JWTKey), cfg.AccessTTL)
	authSvc := service.NewAuthService(userRepo, tokens, lim)
	taskSvc := service.NewTaskService(taskRepo)

	reg := registry.New(logger)

	var sink events.Sink
	if len(cfg.KafkaBrokers) > 0 {
		ks := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = ks.Close() }()
		sink = ks
		logger.Info("event mirror enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	coord := coordinator.New(tokens, taskSvc, reg, sink, logger)
	sugg := suggest.New(cfg.AnthropicKey, logger)

	srv := httpserver.NewServer(coord, authSvc, sugg, cfg.CORSOrigins, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Address))
		errCh <- srv.Run(cfg.Address)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
