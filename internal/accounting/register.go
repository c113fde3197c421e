package accounting

import (
	"context"
	"fmt"
	"sync"

	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/sale"
)

// Register is the cash drawer. It keeps what the customer paid minus the
// change handed back.
type Register struct {
	mu      sync.Mutex
	balance money.Amount
}

// NewRegister returns a drawer holding float.
func NewRegister(float money.Amount) *Register {
	return &Register{balance: float}
}

// AddPayment puts the cash kept for snap in the drawer.
func (r *Register) AddPayment(snap sale.Snapshot) error {
	kept := snap.AmountPaid.Sub(snap.Change)
	if kept.IsNegative() {
		return fmt.Errorf("accounting: change %s exceeds payment %s", snap.Change, snap.AmountPaid)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balance = r.balance.Add(kept)
	return nil
}

// Account implements Sink.
func (r *Register) Account(ctx context.Context, snap sale.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.AddPayment(snap)
}

// Balance returns the cash in the drawer.
func (r *Register) Balance() money.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance
}
