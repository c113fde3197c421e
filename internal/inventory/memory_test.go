package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/inventory"
	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/pricing"
	"github.com/noah-isme/pos-register/internal/sale"
)

func snapshotOf(ids ...string) sale.Snapshot {
	items := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, catalog.Item{ID: id})
	}
	return sale.Snapshot{Items: items}
}

func TestDemoEntriesShelfPrices(t *testing.T) {
	entries := inventory.DemoEntries()
	require.Len(t, entries, 2)

	oat := pricing.Compute(entries[0].Item)
	require.Equal(t, "29.90", oat.Full.Rounded().Decimal().StringFixed(2))
	yog := pricing.Compute(entries[1].Item)
	require.Equal(t, "14.90", yog.Full.Rounded().Decimal().StringFixed(2))

	for _, e := range entries {
		require.NoError(t, e.Item.Validate())
		require.Equal(t, 2, e.Stock)
		require.True(t, e.Item.VAT.Equal(money.MustParse("0.06")))
	}
}

func TestMemoryRetrieveItem(t *testing.T) {
	store := inventory.NewDemoMemory()
	ctx := context.Background()

	it, err := store.RetrieveItem(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, "BigWheel Oatmeal", it.Name)

	_, err = store.RetrieveItem(ctx, "nonExistentItem")
	require.ErrorIs(t, err, inventory.ErrItemNotFound)

	_, err = store.RetrieveItem(ctx, inventory.DefaultFailItemID)
	require.ErrorIs(t, err, inventory.ErrServiceUnavailable)
	require.NotErrorIs(t, err, inventory.ErrItemNotFound)
}

func TestMemoryRetrieveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inventory.NewDemoMemory().RetrieveItem(ctx, "abc123")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryUpdateInventoryFloorsAtZero(t *testing.T) {
	store := inventory.NewDemoMemory()
	ctx := context.Background()

	require.NoError(t, store.UpdateInventory(ctx, snapshotOf("abc123", "def456", "abc123", "abc123", "unknown")))

	left, ok := store.Stock("abc123")
	require.True(t, ok)
	require.Equal(t, 0, left)
	left, ok = store.Stock("def456")
	require.True(t, ok)
	require.Equal(t, 1, left)
	_, ok = store.Stock("unknown")
	require.False(t, ok)
}

func TestMemoryWithoutFailID(t *testing.T) {
	store := inventory.NewMemory("", inventory.DemoEntries()...)
	_, err := store.RetrieveItem(context.Background(), inventory.DefaultFailItemID)
	require.ErrorIs(t, err, inventory.ErrItemNotFound)
}
