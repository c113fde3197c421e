package inventory

import (
	"context"
	"errors"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/sale"
)

var (
	// ErrItemNotFound is returned when no item has the requested id.
	ErrItemNotFound = errors.New("inventory: item not found")
	// ErrServiceUnavailable is returned when the backing store cannot be reached.
	ErrServiceUnavailable = errors.New("inventory: service unavailable")
)

// DefaultFailItemID is the item id that makes the memory store simulate a
// database outage.
const DefaultFailItemID = "fail114514"

// Store looks up items and records sold stock.
type Store interface {
	RetrieveItem(ctx context.Context, id string) (catalog.Item, error)
	UpdateInventory(ctx context.Context, snap sale.Snapshot) error
}

// Entry is an item and the units in stock.
type Entry struct {
	Item  catalog.Item
	Stock int
}

// DemoEntries returns the demo assortment. Shelf prices include 6% VAT; the
// stored base price is derived from them.
func DemoEntries() []Entry {
	vat := money.MustParse("0.06")
	return []Entry{
		{
			Item: catalog.Item{
				ID:          "abc123",
				Name:        "BigWheel Oatmeal",
				Price:       basePrice(money.MustParse("29.9"), vat),
				VAT:         vat,
				Description: "BigWheel Oatmeal 500g, whole grain oats, high fiber, gluten free",
			},
			Stock: 2,
		},
		{
			Item: catalog.Item{
				ID:          "def456",
				Name:        "YouGoGo Blueberry",
				Price:       basePrice(money.MustParse("14.9"), vat),
				VAT:         vat,
				Description: "YouGoGo Blueberry 240g, low sugar youghurt, blueberry flavour",
			},
			Stock: 2,
		},
	}
}

func basePrice(full, vat money.Amount) money.Amount {
	// 1 + vat is never zero for a non-negative rate
	base, _ := full.Div(vat.Add(money.FromInt(1)))
	return base
}

// soldUnits counts the units per item id in snap, keeping first-seen order.
func soldUnits(snap sale.Snapshot) ([]string, map[string]int) {
	counts := make(map[string]int, len(snap.Items))
	order := make([]string, 0, len(snap.Items))
	for _, it := range snap.Items {
		if _, ok := counts[it.ID]; !ok {
			order = append(order, it.ID)
		}
		counts[it.ID]++
	}
	return order, counts
}
