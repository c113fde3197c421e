package resilience_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-register/internal/resilience"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestBreakerTransitions(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := resilience.NewBreaker(2, 0.5, 50*time.Millisecond).WithClock(clock.Now)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.False(t, breaker.Allow(ctx), "breaker should open after threshold exceeded")
	require.Equal(t, resilience.Open, breaker.State())

	clock.Advance(60 * time.Millisecond)
	require.True(t, breaker.Allow(ctx), "breaker should move to half-open after cool off")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	breaker.Report(ctx, true)
	require.True(t, breaker.Allow(ctx), "breaker should close after successful probe")
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerCall(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := resilience.NewBreaker(1, 0.5, time.Second).WithClock(clock.Now)
	ctx := context.Background()
	miss := errors.New("not found")
	down := errors.New("backend down")
	isFailure := func(err error) bool { return !errors.Is(err, miss) }

	err := breaker.Call(ctx, func(context.Context) error { return miss }, isFailure)
	require.ErrorIs(t, err, miss)
	require.Equal(t, resilience.Closed, breaker.State())

	err = breaker.Call(ctx, func(context.Context) error { return down }, isFailure)
	require.ErrorIs(t, err, down)
	require.Equal(t, resilience.Open, breaker.State())

	called := false
	err = breaker.Call(ctx, func(context.Context) error { called = true; return nil }, isFailure)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.False(t, called)

	clock.Advance(2 * time.Second)
	require.NoError(t, breaker.Call(ctx, func(context.Context) error { return nil }, isFailure))
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerMetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := resilience.NewMetrics("pos", reg)
	require.NoError(t, err)
	again, err := resilience.NewMetrics("pos", reg)
	require.NoError(t, err)
	require.Same(t, metrics.State, again.State)

	var logs bytes.Buffer
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := resilience.NewBreaker(1, 0.5, 20*time.Millisecond).
		WithClock(clock.Now).
		WithLogger(zerolog.New(&logs)).
		WithMetrics(metrics).
		WithTarget("inventory")
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.State.WithLabelValues("inventory")))

	clock.Advance(25 * time.Millisecond)
	require.True(t, breaker.Allow(ctx))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.State.WithLabelValues("inventory")))

	breaker.Report(ctx, true)
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.State.WithLabelValues("inventory")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Opened.WithLabelValues("inventory")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("inventory", "closed", "open")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("inventory", "open", "half_open")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("inventory", "half_open", "closed")))

	require.Contains(t, logs.String(), `"to_state":"open"`)
	require.Contains(t, logs.String(), "breaker_transition")
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	breaker := resilience.NewBreaker(2, 0.5, time.Minute)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		breaker.Report(ctx, true)
	}
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Closed, breaker.State())

	breaker.Report(ctx, false)
	breaker.Report(ctx, false)
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.Equal(t, "open", breaker.State().String())
}

func TestBreakerUsesContextLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	ctx := logger.WithContext(context.Background())

	breaker := resilience.NewBreaker(1, 0.5, time.Minute).WithTarget("inventory")
	breaker.Report(ctx, false)
	require.Contains(t, logs.String(), `"target":"inventory"`)
	require.Contains(t, logs.String(), `"from_state":"closed"`)
}
