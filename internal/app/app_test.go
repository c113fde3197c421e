package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-register/internal/app"
	"github.com/noah-isme/pos-register/internal/config"
	"github.com/noah-isme/pos-register/internal/inventory"
	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/obs"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		AppEnv:               "test",
		Currency:             "SEK",
		RevenueLogPath:       filepath.Join(dir, "total_revenue.log"),
		InventoryBackend:     config.BackendMemory,
		InventoryRedisPrefix: "pos",
		InventoryFailItemID:  inventory.DefaultFailItemID,
		BreakerMinRequests:   3,
		BreakerFailureRate:   0.5,
		MetricsNamespace:     "pos",
		MetricsTextfile:      filepath.Join(dir, "pos.prom"),
		SimRounds:            3,
		SimPayment:           money.FromInt(100),
	}
}

func TestRunMemoryBackend(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	a, err := app.New(context.Background(), cfg, zerolog.Nop(), &out)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	require.NoError(t, a.Close())

	require.Len(t, a.Ledger.Entries(), 4)
	require.Equal(t, "209.10", a.Ledger.Revenue().Rounded().Decimal().StringFixed(2))
	require.Equal(t, "209.10", a.Drawer.Balance().Rounded().Decimal().StringFixed(2))
	require.Equal(t, 4.0, testutil.ToFloat64(a.Metrics.SalesFinalized.WithLabelValues(obs.ResultOK)))
	require.InDelta(t, 209.1, testutil.ToFloat64(a.Metrics.Revenue), 1e-9)

	require.Contains(t, out.String(), "ERROR: Could not retrieve item information")
	require.Contains(t, out.String(), "Total Revenue: 209:10 SEK")

	data, err := os.ReadFile(cfg.RevenueLogPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasSuffix(lines[3], ", Total Revenue: 209:10 SEK"))

	prom, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `pos_sales_finalized_total{result="ok"} 4`)
	require.Contains(t, string(prom), `pos_breaker_state{target="inventory"} 0`)
}

func TestRunRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, inventory.NewRedis(client, "pos", 0).Seed(ctx, inventory.DemoEntries()...))

	cfg := testConfig(t)
	cfg.InventoryBackend = config.BackendRedis
	cfg.SimRounds = 1
	var out bytes.Buffer
	a, err := app.New(ctx, cfg, zerolog.Nop(), &out, app.WithRedisClient(client))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Run(ctx))
	require.Len(t, a.Ledger.Entries(), 2)

	// the redis store does not simulate outages, so the fail id is unknown there
	require.Contains(t, out.String(), "ERROR: Item not found in inventory")
	stock, _ := mr.Get("pos:stock:abc123")
	require.Equal(t, "0", stock)
	stock, _ = mr.Get("pos:stock:def456")
	require.Equal(t, "0", stock)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.InventoryBackend = config.BackendRedis
	cfg.RedisURL = "redis://" + addr + "/0"
	_, err = app.New(context.Background(), cfg, zerolog.Nop(), &bytes.Buffer{})
	require.ErrorContains(t, err, "ping redis")
}

func TestRevenueLogFailureKeepsRunning(t *testing.T) {
	cfg := testConfig(t)
	cfg.RevenueLogPath = filepath.Join(t.TempDir(), "missing", "rev.log")
	cfg.SimRounds = 0
	var out, logs bytes.Buffer
	a, err := app.New(context.Background(), cfg, zerolog.New(&logs), &out)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))
	require.NoError(t, a.Close())

	require.Contains(t, logs.String(), "revenue log disabled")
	require.Contains(t, out.String(), "Total Revenue: 74:70 SEK")
}
