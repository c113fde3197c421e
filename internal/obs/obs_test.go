package obs_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/noah-isme/pos-register/internal/obs"
)

func TestNewLoggerToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "warn")

	logger.Info().Msg("hidden")
	logger.Warn().Str("item_id", "abc123").Msg("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"item_id":"abc123"`)
	require.Contains(t, buf.String(), `"level":"warn"`)
}

func TestNewLoggerToConsoleFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "console", "nonsense")

	logger.Debug().Msg("debug line")
	logger.Info().Msg("info line")

	require.NotContains(t, buf.String(), "debug line")
	require.Contains(t, buf.String(), "info line")
}

func TestNewMetricsReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := obs.NewMetrics("pos", reg)
	require.NoError(t, err)
	second, err := obs.NewMetrics("pos", reg)
	require.NoError(t, err)

	first.ItemsEntered.WithLabelValues(obs.ResultOK).Inc()
	second.ItemsEntered.WithLabelValues(obs.ResultOK).Inc()
	require.Equal(t, 2.0, testutil.ToFloat64(first.ItemsEntered.WithLabelValues(obs.ResultOK)))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := obs.NewMetrics("pos", reg)
	require.NoError(t, err)
	m.SalesFinalized.WithLabelValues(obs.ResultOK).Inc()
	m.Revenue.Set(47.488)

	path := filepath.Join(t.TempDir(), "pos.prom")
	require.NoError(t, obs.WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `pos_sales_finalized_total{result="ok"} 1`)
	require.Contains(t, string(data), "pos_revenue_total 47.488")

	require.NoError(t, obs.WriteTextfile("", reg))
}

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = obs.InitTracer(context.Background(), obs.TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
}

func TestInitTracerNoneExporter(t *testing.T) {
	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestNewResourceDescribesRegister(t *testing.T) {
	res, err := obs.NewResource(context.Background(), obs.TracingConfig{
		Environment:      "test",
		Currency:         "SEK",
		InventoryBackend: "redis",
	})
	require.NoError(t, err)

	set := res.Set()
	name, ok := set.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	require.Equal(t, obs.DefaultServiceName, name.AsString())
	cur, ok := set.Value(obs.AttrCurrency)
	require.True(t, ok)
	require.Equal(t, "SEK", cur.AsString())
	backend, ok := set.Value(obs.AttrInventoryBackend)
	require.True(t, ok)
	require.Equal(t, "redis", backend.AsString())

	res, err = obs.NewResource(context.Background(), obs.TracingConfig{ServiceName: "till-7"})
	require.NoError(t, err)
	_, ok = res.Set().Value(obs.AttrCurrency)
	require.False(t, ok)
}
