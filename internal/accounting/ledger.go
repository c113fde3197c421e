package accounting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/sale"
)

// ErrDuplicateSale is returned when a sale is accounted twice.
var ErrDuplicateSale = errors.New("accounting: sale already recorded")

// Sink records finalized sales.
type Sink interface {
	Account(ctx context.Context, snap sale.Snapshot) error
}

// Entry is one recorded sale.
type Entry struct {
	ID         uuid.UUID
	RecordedAt time.Time
	Sale       sale.Snapshot
}

// Ledger is an append-only, in-memory record of finalized sales.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	seen    map[uuid.UUID]struct{}
	now     func() time.Time
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[uuid.UUID]struct{}), now: time.Now}
}

// Account appends snap to the ledger.
func (l *Ledger) Account(ctx context.Context, snap sale.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[snap.SaleID]; dup && snap.SaleID != uuid.Nil {
		return ErrDuplicateSale
	}
	l.seen[snap.SaleID] = struct{}{}
	l.entries = append(l.entries, Entry{ID: uuid.New(), RecordedAt: l.now(), Sale: snap})
	return nil
}

// Entries returns the recorded sales in the order they were accounted.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Revenue sums the total price of every recorded sale.
func (l *Ledger) Revenue() money.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := money.Zero()
	for _, e := range l.entries {
		total = total.Add(e.Sale.TotalPrice)
	}
	return total
}

// Multi fans a sale out to several sinks. Every sink is called; failures are
// joined.
type Multi []Sink

func (m Multi) Account(ctx context.Context, snap sale.Snapshot) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Account(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
