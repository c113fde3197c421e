package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-register/internal/accounting"
	"github.com/noah-isme/pos-register/internal/checkout"
	"github.com/noah-isme/pos-register/internal/config"
	"github.com/noah-isme/pos-register/internal/discount"
	"github.com/noah-isme/pos-register/internal/inventory"
	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/obs"
	"github.com/noah-isme/pos-register/internal/receipt"
	"github.com/noah-isme/pos-register/internal/resilience"
	"github.com/noah-isme/pos-register/internal/revenue"
	"github.com/noah-isme/pos-register/internal/view"
)

// App holds the wired register.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Registry   *prometheus.Registry
	Metrics    *obs.Metrics
	Redis      *redis.Client
	Inventory  inventory.Store
	Ledger     *accounting.Ledger
	Drawer     *accounting.Register
	Controller *checkout.Controller
	View       *view.View

	closers []func() error
}

// Option customises New.
type Option func(*options)

type options struct {
	redis *redis.Client
}

// WithRedisClient makes New use client instead of dialing cfg.RedisURL.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) { o.redis = client }
}

// New wires the register described by cfg. Cashier output and receipts go to out.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, out io.Writer, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Ledger:   accounting.NewLedger(),
		Drawer:   accounting.NewRegister(money.Zero()),
	}
	metrics, err := obs.NewMetrics(cfg.MetricsNamespace, a.Registry)
	if err != nil {
		return nil, fmt.Errorf("app: register metrics: %w", err)
	}
	a.Metrics = metrics

	store, err := a.buildInventory(ctx, o.redis)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Inventory = store

	a.Controller = checkout.New(
		store,
		accounting.Multi{a.Ledger, a.Drawer},
		receipt.NewPrinter(out, cfg.Currency),
		checkout.WithLogger(logger.With().Str("component", "checkout").Logger()),
		checkout.WithDiscounts(discount.NewCatalog()),
		checkout.WithMetrics(metrics),
		checkout.WithTextfileExport(cfg.MetricsTextfile, a.Registry),
	)
	a.registerObservers(out)
	a.View = view.New(a.Controller, out, cfg.Currency, logger)
	return a, nil
}

func (a *App) buildInventory(ctx context.Context, client *redis.Client) (inventory.Store, error) {
	cfg := a.Config
	var store inventory.Store
	switch cfg.InventoryBackend {
	case config.BackendRedis:
		if client == nil {
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("app: parse redis url: %w", err)
			}
			client = redis.NewClient(opts)
			a.closers = append(a.closers, client.Close)
		}
		if err := redisotel.InstrumentTracing(client); err != nil {
			a.Logger.Error().Err(err).Msg("instrument redis tracing")
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("app: ping redis: %w", err)
		}
		a.Redis = client
		store = inventory.NewRedis(client, cfg.InventoryRedisPrefix, cfg.InventoryCacheTTL)
	default:
		store = inventory.NewMemory(cfg.InventoryFailItemID, inventory.DemoEntries()...)
	}

	breakerMetrics, err := resilience.NewMetrics(cfg.MetricsNamespace, a.Registry)
	if err != nil {
		return nil, fmt.Errorf("app: register breaker metrics: %w", err)
	}
	breaker := resilience.NewBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRate, cfg.BreakerOpenFor).
		WithTarget("inventory").
		WithLogger(a.Logger).
		WithMetrics(breakerMetrics)
	return inventory.NewGuarded(store, breaker), nil
}

func (a *App) registerObservers(out io.Writer) {
	cfg := a.Config
	a.Controller.RegisterObserver(revenue.NewTracker("console",
		revenue.ConsoleRenderer{Out: out, Currency: cfg.Currency}, a.Logger))

	file, err := revenue.OpenFile(cfg.RevenueLogPath)
	if err != nil {
		a.Logger.Error().Err(err).Str("path", cfg.RevenueLogPath).Msg("revenue log disabled")
	} else {
		file.Currency = cfg.Currency
		a.closers = append(a.closers, file.Close)
		a.Controller.RegisterObserver(revenue.NewTracker("file", file, a.Logger))
	}

	a.Controller.RegisterObserver(revenue.NewTracker("metrics",
		revenue.GaugeRenderer{Gauge: a.Metrics.Revenue}, a.Logger))
}

// Simulation builds the scripted run from the configuration.
func (a *App) Simulation() view.Simulation {
	sim := view.DefaultSimulation()
	sim.FirstSale[3] = a.Config.InventoryFailItemID
	sim.Rounds = a.Config.SimRounds
	sim.Payment = a.Config.SimPayment
	sim.CustomerID = a.Config.SimCustomerID
	return sim
}

// Run plays the configured simulation.
func (a *App) Run(ctx context.Context) error {
	if err := a.View.Simulate(ctx, a.Simulation()); err != nil {
		return err
	}
	a.Logger.Info().
		Int("sales", len(a.Ledger.Entries())).
		Str("revenue", a.Ledger.Revenue().String()).
		Str("drawer", a.Drawer.Balance().String()).
		Msg("simulation_finished")
	return nil
}

// Close releases files and connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
