package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-register/internal/inventory"
	"github.com/noah-isme/pos-register/internal/resilience"
)

func TestGuardedOpensOnOutages(t *testing.T) {
	now := time.Unix(0, 0)
	breaker := resilience.NewBreaker(2, 0.5, time.Minute).WithClock(func() time.Time { return now })
	store := inventory.NewGuarded(inventory.NewDemoMemory(), breaker)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.RetrieveItem(ctx, inventory.DefaultFailItemID)
		require.ErrorIs(t, err, inventory.ErrServiceUnavailable)
	}
	require.Equal(t, resilience.Open, breaker.State())

	_, err := store.RetrieveItem(ctx, "abc123")
	require.ErrorIs(t, err, inventory.ErrServiceUnavailable)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)

	now = now.Add(2 * time.Minute)
	it, err := store.RetrieveItem(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, "abc123", it.ID)
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestGuardedIgnoresMisses(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	store := inventory.NewGuarded(inventory.NewDemoMemory(), breaker)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.RetrieveItem(ctx, "nonExistentItem")
		require.ErrorIs(t, err, inventory.ErrItemNotFound)
	}
	require.Equal(t, resilience.Closed, breaker.State())

	require.NoError(t, store.UpdateInventory(ctx, snapshotOf("abc123")))
}
