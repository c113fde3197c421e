package sale

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/pricing"
)

// Snapshot is the read-only record of a finalized sale. Items carry
// VAT-inclusive unit prices, one entry per unit.
type Snapshot struct {
	SaleID     uuid.UUID         `json:"saleId"`
	Time       time.Time         `json:"time"`
	Items      []catalog.Item    `json:"items"`
	Discounts  []AppliedDiscount `json:"discounts,omitempty"`
	TotalPrice money.Amount      `json:"totalPrice"`
	TotalVAT   money.Amount      `json:"totalVat"`
	AmountPaid money.Amount      `json:"amountPaid"`
	Change     money.Amount      `json:"change"`
}

// Receipt is a snapshot with its items grouped for printing.
type Receipt struct {
	Sale  Snapshot
	Lines []pricing.Group
}

// NewReceipt groups the snapshot items by id in first-seen order.
func NewReceipt(snap Snapshot) Receipt {
	return Receipt{Sale: snap, Lines: pricing.GroupByID(snap.Items)}
}
