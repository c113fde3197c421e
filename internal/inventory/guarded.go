package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/resilience"
	"github.com/noah-isme/pos-register/internal/sale"
)

// Guarded routes calls to a store through a circuit breaker. Lookup misses do
// not count against the breaker.
type Guarded struct {
	next    Store
	breaker *resilience.Breaker
}

// NewGuarded wraps next with breaker.
func NewGuarded(next Store, breaker *resilience.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) RetrieveItem(ctx context.Context, id string) (catalog.Item, error) {
	var it catalog.Item
	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		it, err = g.next.RetrieveItem(ctx, id)
		return err
	}, isOutage)
	if err != nil {
		return catalog.Item{}, translate(err)
	}
	return it, nil
}

func (g *Guarded) UpdateInventory(ctx context.Context, snap sale.Snapshot) error {
	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		return g.next.UpdateInventory(ctx, snap)
	}, isOutage)
	return translate(err)
}

func isOutage(err error) bool {
	return !errors.Is(err, ErrItemNotFound)
}

func translate(err error) error {
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return err
}
