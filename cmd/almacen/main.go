package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/almacen/almacen-ui/config"
	"github.com/almacen/almacen-ui/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if err = bootstrap.ValidateConfig(&cfg); err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	redisClient, err := initRedis(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics failed", "error", cerr)
		}
	}()

	handler, err := bootstrap.BuildHTTPHandler(&bootstrap.HTTPServerConfig{
		Config:      &cfg,
		Services:    services,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	return bootstrap.ServeWithShutdown(ctx, bootstrap.NewHTTPServer(cfg.HTTP.Addr, handler), logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting almacen ui",
		"addr", cfg.HTTP.Addr,
		"auth_mode", string(cfg.Auth.Mode),
		"session_store", string(cfg.Session.Store),
		"api_base_url", cfg.API.BaseURL,
		"dev", cfg.IsDev)
}

// initRedis connects only when sessions live in Redis.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initRedis(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	if cfg.Session.Store != config.SessionStoreRedis {
		logger.WarnContext(ctx, "sessions kept in memory; they are lost on restart and not shared between replicas")
		return nil, nil
	}
	client, err := bootstrap.ConnectRedis(ctx, bootstrap.RedisOptions{Config: cfg.Redis, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
