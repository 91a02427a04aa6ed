package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/shorturl-api/internal/container"
	"github.com/serroba/shorturl-api/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	opts := &container.Options{
		Storage:   getEnv("SERVICE_STORAGE", container.StoragePostgres),
		RedisAddr: getEnv("SERVICE_REDIS_ADDR", "localhost:6379"),
		CacheTTL:  getEnvInt("SERVICE_CACHE_TTL", 3600),
		LogFormat: getEnv("SERVICE_LOG_FORMAT", "console"),
	}

	injector := do.New()
	container.RegisterConsumer(injector, opts)

	logger := do.MustInvoke[*zap.Logger](injector)

	if !opts.Cached() {
		logger.Warn("server does not read through the cache, warmed entries will go unused",
			zap.String("storage", opts.Storage),
			zap.Int("cache_ttl", opts.CacheTTL),
		)
	}

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		logger.Fatal("failed to build consumer group", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := group.Start(ctx); err != nil {
		cancel()
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return v
}
