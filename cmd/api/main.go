// TaskHub is a multi-tenant todo API with swappable storage backends,
// optimistic concurrency on every todo mutation, and bulk import/export.
//
// @title        TaskHub API
// @version      1.0
// @description  Multi-tenant todo service with optimistic concurrency and bulk import/export.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskhub/taskhub/internal/api"
	"github.com/taskhub/taskhub/internal/infrastructure/config"
	mongoinfra "github.com/taskhub/taskhub/internal/infrastructure/db/mongo"
	redisinfra "github.com/taskhub/taskhub/internal/infrastructure/db/redis"
	"github.com/taskhub/taskhub/internal/storage/file"
	"github.com/taskhub/taskhub/internal/storage/memory"
	"github.com/taskhub/taskhub/internal/storage/mongostore"
	"github.com/taskhub/taskhub/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	routerCfg := api.RouterConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		Log:       log,
	}

	// --- Storage backend ---
	switch cfg.StorageBackend {
	case config.BackendMemory:
		routerCfg.Storage = memory.New()
	case config.BackendFile:
		store, err := file.New(cfg.FileStoragePath, log)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.FileStoragePath).Msg("failed to open file storage")
		}
		routerCfg.Storage = store
	case config.BackendMongo:
		client, db, err := mongoinfra.Connect(ctx, mongoinfra.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		store := mongostore.New(db, log)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create mongodb indexes")
		}
		routerCfg.Storage = store
		routerCfg.MongoDB = db
	}
	log.Info().Str("backend", cfg.StorageBackend).Msg("storage backend ready")

	// --- Redis (optional: rate limiting) ---
	if cfg.Redis.Addr != "" {
		rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()

		routerCfg.Redis = rdb
		routerCfg.Limiter = redisinfra.NewRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		log.Info().Int64("requests", cfg.RateLimit.Requests).Dur("window", cfg.RateLimit.Window).
			Msg("rate limiting enabled")
	}

	e := api.NewRouter(routerCfg)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("taskhub api listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
