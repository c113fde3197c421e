package discount_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/discount"
	"github.com/noah-isme/pos-register/internal/money"
)

func TestAmountOff(t *testing.T) {
	total := money.MustParse("200")

	off, err := discount.ItemCount(money.MustParse("5"), "").AmountOff(total)
	require.NoError(t, err)
	require.True(t, off.Equal(money.FromInt(5)))

	off, err = discount.Percentage(money.MustParse("0.10"), "").AmountOff(total)
	require.NoError(t, err)
	require.True(t, off.Equal(money.FromInt(20)))

	off, err = discount.Customer(money.MustParse("0.05"), "").AmountOff(total)
	require.NoError(t, err)
	require.True(t, off.Equal(money.FromInt(10)))
}

func TestValidateRejectsBadDiscounts(t *testing.T) {
	require.ErrorIs(t, discount.Discount{}.Validate(), discount.ErrUnknownKind)
	require.ErrorIs(t, discount.ItemCount(money.MustParse("-1"), "").Validate(), discount.ErrNegativeValue)
	require.ErrorIs(t, discount.Percentage(money.MustParse("1.5"), "").Validate(), discount.ErrRateOutOfRange)
	require.NoError(t, discount.Percentage(money.FromInt(1), "").Validate())
	require.NoError(t, discount.ItemCount(money.FromInt(500), "").Validate())
}

func TestBestPicksLargestApplicable(t *testing.T) {
	total := money.MustParse("12.50")
	offers := []discount.Discount{
		discount.ItemCount(money.MustParse("20"), "too big"),
		discount.Percentage(money.MustParse("0.10"), "ten"),
		discount.ItemCount(money.MustParse("5"), "five"),
	}
	best, off, ok := discount.Best(offers, total)
	require.True(t, ok)
	require.Equal(t, "five", best.Description)
	require.True(t, off.Equal(money.FromInt(5)))

	_, _, ok = discount.Best(nil, total)
	require.False(t, ok)
}

func units(n int) []catalog.Item {
	items := make([]catalog.Item, n)
	for i := range items {
		items[i] = catalog.Item{ID: "abc123"}
	}
	return items
}

func TestCatalogDefaultRules(t *testing.T) {
	c := discount.NewCatalog()
	ctx := context.Background()

	got, err := c.FetchEligibleDiscounts(ctx, discount.Query{Items: units(2), TotalPrice: money.FromInt(50)})
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = c.FetchEligibleDiscounts(ctx, discount.Query{Items: units(3), TotalPrice: money.FromInt(100)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, discount.KindItemCount, got[0].Kind)

	got, err = c.FetchEligibleDiscounts(ctx, discount.Query{Items: units(3), TotalPrice: money.MustParse("100.01"), CustomerID: 114514})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, discount.KindItemCount, got[0].Kind)
	require.Equal(t, discount.KindPercentage, got[1].Kind)
	require.Equal(t, discount.KindCustomer, got[2].Kind)
	require.Equal(t, "5% off for customer 114514", got[2].Description)
}

func TestCatalogHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := discount.NewCatalog().FetchEligibleDiscounts(ctx, discount.Query{})
	require.ErrorIs(t, err, context.Canceled)
}
