package view

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-register/internal/common"
	"github.com/noah-isme/pos-register/internal/inventory"
	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/sale"
)

// Register is the controller surface the cashier view drives.
type Register interface {
	StartSale()
	EnterItem(ctx context.Context, id string) (sale.RunningTotal, error)
	EndSale() (money.Amount, error)
	ApplyBestDiscount(ctx context.Context, customerID int64) (sale.AppliedDiscount, bool, error)
	FinalizeSaleWithPayment(ctx context.Context, amount money.Amount) (money.Amount, error)
}

// Simulation describes a scripted run of the register.
type Simulation struct {
	// FirstSale is scanned in the opening sale, failures included.
	FirstSale []string
	// RoundItems is scanned in each of the Rounds sales that follow.
	RoundItems []string
	Rounds     int
	Payment    money.Amount
	// CustomerID, when set, asks for the best eligible discount before payment.
	CustomerID int64
}

// DefaultSimulation scans two oatmeals and a yoghurt, then an item whose
// lookup fails and an unknown item, paying 100 for each sale.
func DefaultSimulation() Simulation {
	return Simulation{
		FirstSale:  []string{"abc123", "abc123", "def456", inventory.DefaultFailItemID, "nonExistentItem"},
		RoundItems: []string{"abc123", "def456"},
		Rounds:     3,
		Payment:    money.FromInt(100),
	}
}

// View is the cashier's console.
type View struct {
	reg      Register
	out      io.Writer
	errs     ErrorMessageHandler
	currency string
	logger   zerolog.Logger
}

// New returns a view printing to out.
func New(reg Register, out io.Writer, currency string, logger zerolog.Logger) *View {
	if currency == "" {
		currency = "SEK"
	}
	return &View{
		reg:      reg,
		out:      out,
		errs:     ErrorMessageHandler{Out: out},
		currency: currency,
		logger:   logger,
	}
}

// WithErrorHandler replaces the handler used for cashier-facing errors.
func (v *View) WithErrorHandler(h ErrorMessageHandler) *View {
	if h.Out == nil {
		h.Out = v.out
	}
	v.errs = h
	return v
}

// Simulate runs sim. Failed steps are shown to the cashier and the run goes
// on; only cancellation of ctx stops it early.
func (v *View) Simulate(ctx context.Context, sim Simulation) error {
	if err := v.runSale(ctx, sim.FirstSale, sim); err != nil {
		return err
	}
	for i := 0; i < sim.Rounds; i++ {
		if err := v.runSale(ctx, sim.RoundItems, sim); err != nil {
			return err
		}
	}
	return nil
}

func (v *View) runSale(ctx context.Context, items []string, sim Simulation) error {
	v.reg.StartSale()
	for _, id := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		v.tryEnterItem(ctx, id)
	}
	if sim.CustomerID != 0 {
		v.tryDiscount(ctx, sim.CustomerID)
	}

	total, err := v.reg.EndSale()
	if err != nil {
		v.showError(err)
		return nil
	}
	v.displayEndSale(total)

	if err := ctx.Err(); err != nil {
		return err
	}
	change, err := v.reg.FinalizeSaleWithPayment(ctx, sim.Payment)
	if err != nil {
		v.showError(err)
		return nil
	}
	v.displayChange(change)
	return nil
}

func (v *View) tryEnterItem(ctx context.Context, id string) {
	info, err := v.reg.EnterItem(ctx, id)
	if err != nil {
		v.showError(err)
		return
	}
	v.displayRunningInfo(id, info)
}

func (v *View) tryDiscount(ctx context.Context, customerID int64) {
	applied, ok, err := v.reg.ApplyBestDiscount(ctx, customerID)
	if err != nil {
		v.showError(err)
		return
	}
	if !ok {
		return
	}
	fmt.Fprintf(v.out, "Discount: %s\nAmount off: %s %s\n\n",
		applied.Discount.Description, applied.Amount.Colonized(), v.currency)
}

func (v *View) displayRunningInfo(id string, info sale.RunningTotal) {
	it := info.Item
	fmt.Fprintf(v.out, "Add 1 item with item id %s:\n", id)
	fmt.Fprintf(v.out, "Item ID: %s\n", it.ID)
	fmt.Fprintf(v.out, "Item name: %s\n", it.Name)
	fmt.Fprintf(v.out, "Item cost: %s %s\n", it.Price.Colonized(), v.currency)
	fmt.Fprintf(v.out, "VAT: %s%%\n", it.VAT.Mul(money.FromInt(100)).Colonized())
	fmt.Fprintf(v.out, "Item description: %s\n\n", it.Description)
	fmt.Fprintf(v.out, "Total cost (incl VAT): %s %s\n", info.TotalPrice.Colonized(), v.currency)
	fmt.Fprintf(v.out, "Total VAT: %s %s\n\n", info.TotalVAT.Colonized(), v.currency)
}

func (v *View) displayEndSale(total money.Amount) {
	fmt.Fprintf(v.out, "End sale:\nTotal cost (incl VAT): %s %s\n\n", total.Colonized(), v.currency)
}

func (v *View) displayChange(change money.Amount) {
	fmt.Fprintf(v.out, "Change to give the customer : %s %s\n\n", change.Colonized(), v.currency)
}

func (v *View) showError(err error) {
	v.logger.Debug().Err(err).Msg("shown_to_cashier")
	v.errs.ShowErrorMessage(common.DisplayMessage(err))
}
