package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noah-isme/pos-register/internal/app"
	"github.com/noah-isme/pos-register/internal/config"
	"github.com/noah-isme/pos-register/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:          cfg.TracingEnabled,
		ServiceName:      obs.DefaultServiceName,
		Endpoint:         cfg.OTLPEndpoint,
		SamplingRatio:    cfg.TracingSampling,
		Environment:      cfg.AppEnv,
		Currency:         cfg.Currency,
		InventoryBackend: cfg.InventoryBackend,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	register, err := app.New(startCtx, cfg, logger, os.Stdout)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise register")
	}
	defer func() {
		if err := register.Close(); err != nil {
			logger.Error().Err(err).Msg("close register")
		}
	}()

	logger.Info().Str("inventory", cfg.InventoryBackend).Int("rounds", cfg.SimRounds).Msg("register_started")
	if err := register.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("simulation failed")
	}
}
