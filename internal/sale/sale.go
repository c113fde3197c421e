package sale

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/discount"
	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/pricing"
)

// Observer is told the finalized total price of every sale it is registered on.
type Observer interface {
	UpdateTotalRevenue(total money.Amount)
}

// RunningTotal is returned after each item entry.
type RunningTotal struct {
	Item       catalog.Item // VAT-inclusive unit price
	TotalPrice money.Amount
	TotalVAT   money.Amount
}

// AppliedDiscount records a discount and the amount it took off.
type AppliedDiscount struct {
	Discount discount.Discount
	Amount   money.Amount
}

// Sale is a single register transaction. It is not safe for concurrent use;
// one caller owns a sale from start to finalization.
type Sale struct {
	id         uuid.UUID
	startedAt  time.Time
	items      []catalog.Item
	totalPrice money.Amount
	totalVAT   money.Amount
	discounts  []AppliedDiscount
	observers  []Observer
	payment    *money.Amount
	finalized  bool
}

// New starts an empty sale stamped with the current time.
func New() *Sale {
	return NewAt(time.Now())
}

// NewAt starts an empty sale stamped with startedAt.
func NewAt(startedAt time.Time) *Sale {
	return &Sale{
		id:        uuid.New(),
		startedAt: startedAt,
	}
}

// ID identifies the sale in accounting records.
func (s *Sale) ID() uuid.UUID {
	return s.id
}

func (s *Sale) StartedAt() time.Time {
	return s.startedAt
}

// TotalPrice is the running VAT-inclusive total, after discounts.
func (s *Sale) TotalPrice() money.Amount {
	return s.totalPrice
}

func (s *Sale) TotalVAT() money.Amount {
	return s.totalVAT
}

func (s *Sale) Finalized() bool {
	return s.finalized
}

// BoughtItems returns the entries added so far at their base price, one per unit.
func (s *Sale) BoughtItems() []catalog.Item {
	out := make([]catalog.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Quantity counts the units bought of the item id.
func (s *Sale) Quantity(id string) int {
	n := 0
	for _, it := range s.items {
		if it.ID == id {
			n++
		}
	}
	return n
}

// Discounts lists the discounts applied so far.
func (s *Sale) Discounts() []AppliedDiscount {
	out := make([]AppliedDiscount, len(s.discounts))
	copy(out, s.discounts)
	return out
}

// Payment returns the tendered amount, if one was entered.
func (s *Sale) Payment() (money.Amount, bool) {
	if s.payment == nil {
		return money.Amount{}, false
	}
	return *s.payment, true
}

// DiscountQuery describes the sale for a discount catalog lookup.
func (s *Sale) DiscountQuery(customerID int64) discount.Query {
	return discount.Query{
		Items:      s.BoughtItems(),
		TotalPrice: s.totalPrice,
		CustomerID: customerID,
	}
}

// RegisterObserver subscribes o to the finalization of this sale.
func (s *Sale) RegisterObserver(o Observer) {
	if o == nil {
		return
	}
	s.observers = append(s.observers, o)
}

// AddBoughtItem adds one unit of item. The base-price record is kept for
// accounting while the returned item carries the VAT-inclusive price.
func (s *Sale) AddBoughtItem(item catalog.Item) (RunningTotal, error) {
	return s.AddBoughtItems(item, 1)
}

// AddBoughtItems adds qty units of item. Either all units are added or none.
func (s *Sale) AddBoughtItems(item catalog.Item, qty int) (RunningTotal, error) {
	if s.finalized {
		return RunningTotal{}, ErrSaleFinalized
	}
	if qty <= 0 {
		return RunningTotal{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	if err := item.Validate(); err != nil {
		return RunningTotal{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	line := pricing.Compute(item)
	for i := 0; i < qty; i++ {
		s.items = append(s.items, item)
		s.totalVAT = s.totalVAT.Add(line.VAT)
		s.totalPrice = s.totalPrice.Add(line.Full)
	}
	return RunningTotal{
		Item:       item.WithPrice(line.Full),
		TotalPrice: s.totalPrice,
		TotalVAT:   s.totalVAT,
	}, nil
}

// SetDiscountedPrice takes d off the total price and returns the amount
// subtracted. Total VAT is left as is.
func (s *Sale) SetDiscountedPrice(d discount.Discount) (money.Amount, error) {
	if s.finalized {
		return money.Amount{}, ErrSaleFinalized
	}
	off, err := d.AmountOff(s.totalPrice)
	if err != nil {
		return money.Amount{}, fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}
	if off.GreaterThan(s.totalPrice) {
		return money.Amount{}, fmt.Errorf("%w: %s exceeds total price %s", ErrInvalidDiscount, off, s.totalPrice)
	}
	s.totalPrice = s.totalPrice.Sub(off)
	s.discounts = append(s.discounts, AppliedDiscount{Discount: d, Amount: off})
	return off, nil
}

// SetAmountPaid records the tendered amount.
func (s *Sale) SetAmountPaid(amount money.Amount) error {
	if s.finalized {
		return ErrSaleFinalized
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidPayment, amount)
	}
	paid := amount
	s.payment = &paid
	return nil
}

// GetSaleInfo finalizes the sale against amount: it computes the change,
// freezes a snapshot and notifies every registered observer once with the
// total price. Underpayment is an error, never a partial payment.
func (s *Sale) GetSaleInfo(amount money.Amount) (Snapshot, error) {
	if err := s.checkTender(amount); err != nil {
		return Snapshot{}, err
	}
	change := amount.Sub(s.totalPrice)

	paid := amount
	s.payment = &paid
	s.finalized = true

	snap := Snapshot{
		SaleID:     s.id,
		Time:       s.startedAt,
		Items:      s.itemsWithVAT(),
		Discounts:  s.Discounts(),
		TotalPrice: s.totalPrice,
		TotalVAT:   s.totalVAT,
		AmountPaid: amount,
		Change:     change,
	}
	s.notifyObservers()
	return snap, nil
}

// Settle records amount as the payment and finalizes the sale. A rejected
// tender leaves no payment recorded.
func (s *Sale) Settle(amount money.Amount) (Snapshot, error) {
	if err := s.checkTender(amount); err != nil {
		return Snapshot{}, err
	}
	if err := s.SetAmountPaid(amount); err != nil {
		return Snapshot{}, err
	}
	return s.GetSaleInfo(amount)
}

func (s *Sale) checkTender(amount money.Amount) error {
	if s.finalized {
		return ErrSaleFinalized
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidPayment, amount)
	}
	if amount.LessThan(s.totalPrice) {
		return fmt.Errorf("%w: paid %s, total %s", ErrInsufficientPayment, amount, s.totalPrice)
	}
	return nil
}

// GetReceiptInfo turns a finalized snapshot into a receipt.
func (s *Sale) GetReceiptInfo(snap *Snapshot) (Receipt, error) {
	if snap == nil {
		return Receipt{}, fmt.Errorf("%w: sale information cannot be nil", ErrInvalidArgument)
	}
	return NewReceipt(*snap), nil
}

func (s *Sale) itemsWithVAT() []catalog.Item {
	out := make([]catalog.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.WithPrice(pricing.Compute(it).Full))
	}
	return out
}

func (s *Sale) notifyObservers() {
	for _, o := range s.observers {
		o.UpdateTotalRevenue(s.totalPrice)
	}
}
