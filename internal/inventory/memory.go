package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/sale"
)

// Memory is an in-process inventory used by the register simulation.
type Memory struct {
	mu     sync.Mutex
	items  map[string]catalog.Item
	stock  map[string]int
	failID string
}

// NewMemory builds a store holding entries. Looking up failID reports
// ErrServiceUnavailable; an empty failID disables the simulation.
func NewMemory(failID string, entries ...Entry) *Memory {
	m := &Memory{
		items:  make(map[string]catalog.Item, len(entries)),
		stock:  make(map[string]int, len(entries)),
		failID: failID,
	}
	for _, e := range entries {
		m.items[e.Item.ID] = e.Item
		m.stock[e.Item.ID] = e.Stock
	}
	return m
}

// NewDemoMemory returns a memory store seeded with DemoEntries.
func NewDemoMemory() *Memory {
	return NewMemory(DefaultFailItemID, DemoEntries()...)
}

func (m *Memory) RetrieveItem(ctx context.Context, id string) (catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Item{}, err
	}
	if m.failID != "" && id == m.failID {
		return catalog.Item{}, fmt.Errorf("%w: database server is not running", ErrServiceUnavailable)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return catalog.Item{}, fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	return it, nil
}

// UpdateInventory takes the sold units off stock, never going below zero.
// Ids the store does not carry are skipped.
func (m *Memory) UpdateInventory(ctx context.Context, snap sale.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ids, counts := soldUnits(snap)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		left, ok := m.stock[id]
		if !ok {
			continue
		}
		m.stock[id] = max(0, left-counts[id])
	}
	return nil
}

// Stock returns the units left of id.
func (m *Memory) Stock(id string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.stock[id]
	return n, ok
}
