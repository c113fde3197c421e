package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/pos-register/internal/config"
	"github.com/noah-isme/pos-register/internal/inventory"
	"github.com/noah-isme/pos-register/internal/obs"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(*envFile); err != nil {
		bootLogger := obs.NewLogger("console", "info")
		bootLogger.Info().Str("file", *envFile).Msg("no env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)
	if cfg.RedisURL == "" {
		logger.Fatal().Msg("REDIS_URL is not set")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	store := inventory.NewRedis(client, cfg.InventoryRedisPrefix, cfg.InventoryCacheTTL)
	entries := inventory.DemoEntries()
	if err := store.Seed(ctx, entries...); err != nil {
		logger.Fatal().Err(err).Msg("seed inventory")
	}
	for _, e := range entries {
		logger.Info().Str("item_id", e.Item.ID).Str("name", e.Item.Name).Int("stock", e.Stock).Msg("seeded")
	}
	logger.Info().Str("prefix", cfg.InventoryRedisPrefix).Msg("seeding completed")
}
