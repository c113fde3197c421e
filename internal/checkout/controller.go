package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/common"
	"github.com/noah-isme/pos-register/internal/discount"
	"github.com/noah-isme/pos-register/internal/inventory"
	"github.com/noah-isme/pos-register/internal/money"
	"github.com/noah-isme/pos-register/internal/obs"
	"github.com/noah-isme/pos-register/internal/sale"
)

// ErrNoActiveSale is returned when an operation needs a sale and none was started.
var ErrNoActiveSale = errors.New("checkout: no active sale")

// Inventory supplies item records and takes sold stock.
type Inventory interface {
	RetrieveItem(ctx context.Context, id string) (catalog.Item, error)
	UpdateInventory(ctx context.Context, snap sale.Snapshot) error
}

// Accounting records finalized sales.
type Accounting interface {
	Account(ctx context.Context, snap sale.Snapshot) error
}

// Printer prints receipts.
type Printer interface {
	PrintReceipt(r sale.Receipt) error
}

// DiscountSource lists the discounts a sale is eligible for.
type DiscountSource interface {
	FetchEligibleDiscounts(ctx context.Context, q discount.Query) ([]discount.Discount, error)
}

// Controller runs one sale at a time against the register's collaborators.
type Controller struct {
	inventory  Inventory
	accounting Accounting
	printer    Printer
	discounts  DiscountSource

	logger   zerolog.Logger
	metrics  *obs.Metrics
	textfile string
	gatherer prometheus.Gatherer
	tracer   trace.Tracer
	now      func() time.Time

	observers []sale.Observer
	current   *sale.Sale
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for collaborator failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithDiscounts sets the discount catalog. Without one no discounts are eligible.
func WithDiscounts(src DiscountSource) Option {
	return func(c *Controller) { c.discounts = src }
}

// WithMetrics records item entries, discounts and finalizations on m.
func WithMetrics(m *obs.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithTextfileExport writes everything g gathers to path after each
// finalized sale.
func WithTextfileExport(path string, g prometheus.Gatherer) Option {
	return func(c *Controller) {
		c.textfile = path
		c.gatherer = g
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// WithClock sets the clock that stamps new sales.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New builds a controller.
func New(inv Inventory, acct Accounting, printer Printer, opts ...Option) *Controller {
	c := &Controller{
		inventory:  inv,
		accounting: acct,
		printer:    printer,
		logger:     zerolog.Nop(),
		tracer:     otel.Tracer("github.com/noah-isme/pos-register/internal/checkout"),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RegisterObserver subscribes o to every sale started afterwards.
func (c *Controller) RegisterObserver(o sale.Observer) {
	if o == nil {
		return
	}
	c.observers = append(c.observers, o)
}

// StartSale discards any current sale and starts a new one.
func (c *Controller) StartSale() {
	s := sale.NewAt(c.now())
	for _, o := range c.observers {
		s.RegisterObserver(o)
	}
	c.current = s
	c.logger.Debug().Str("sale_id", s.ID().String()).Msg("sale_started")
}

// EnterItem adds one unit of the item id to the current sale.
func (c *Controller) EnterItem(ctx context.Context, id string) (sale.RunningTotal, error) {
	return c.EnterItems(ctx, id, 1)
}

// EnterItems adds qty units of the item id. Inventory failures are reported
// as *common.AppError and leave the sale untouched.
func (c *Controller) EnterItems(ctx context.Context, id string, qty int) (sale.RunningTotal, error) {
	ctx, span := c.tracer.Start(ctx, "checkout.EnterItem",
		trace.WithAttributes(attribute.String("item.id", id), attribute.Int("item.qty", qty)))
	defer span.End()

	if c.current == nil {
		return sale.RunningTotal{}, c.fail(span, ErrNoActiveSale)
	}
	item, err := c.inventory.RetrieveItem(ctx, id)
	if err != nil {
		return sale.RunningTotal{}, c.fail(span, c.inventoryError(id, err))
	}
	running, err := c.current.AddBoughtItems(item, qty)
	if err != nil {
		c.countItem(obs.ResultInvalid)
		return sale.RunningTotal{}, c.fail(span, fmt.Errorf("checkout: enter item %s: %w", id, err))
	}
	c.countItem(obs.ResultOK)
	span.SetAttributes(attribute.String("sale.total_price", running.TotalPrice.String()))
	return running, nil
}

func (c *Controller) inventoryError(id string, err error) error {
	if errors.Is(err, inventory.ErrItemNotFound) {
		c.countItem(obs.ResultNotFound)
		c.logger.Warn().Err(err).Str("item_id", id).Msg("item_not_found")
		return common.NewAppError(common.CodeItemNotFound, "Item not found in inventory", common.KindCollaborator, err)
	}
	c.countItem(obs.ResultUnavailable)
	c.logger.Error().Err(err).Str("item_id", id).Msg("inventory_unavailable")
	return common.NewAppError(common.CodeInventoryUnavailable, "Could not retrieve item information", common.KindCollaborator, err)
}

// EndSale returns the total price of the current sale rounded to two decimals.
func (c *Controller) EndSale() (money.Amount, error) {
	if c.current == nil {
		return money.Amount{}, ErrNoActiveSale
	}
	return c.current.TotalPrice().Rounded(), nil
}

// EligibleDiscounts asks the discount catalog which discounts apply to the
// current sale for customerID.
func (c *Controller) EligibleDiscounts(ctx context.Context, customerID int64) ([]discount.Discount, error) {
	if c.current == nil {
		return nil, ErrNoActiveSale
	}
	if c.discounts == nil {
		return nil, nil
	}
	ds, err := c.discounts.FetchEligibleDiscounts(ctx, c.current.DiscountQuery(customerID))
	if err != nil {
		return nil, fmt.Errorf("checkout: fetch discounts: %w", err)
	}
	return ds, nil
}

// ApplyDiscount takes d off the current sale and returns the amount subtracted.
func (c *Controller) ApplyDiscount(ctx context.Context, d discount.Discount) (money.Amount, error) {
	_, span := c.tracer.Start(ctx, "checkout.ApplyDiscount",
		trace.WithAttributes(attribute.String("discount.kind", string(d.Kind))))
	defer span.End()

	if c.current == nil {
		return money.Amount{}, c.fail(span, ErrNoActiveSale)
	}
	off, err := c.current.SetDiscountedPrice(d)
	if err != nil {
		if sale.IsValidation(err) {
			err = common.NewAppError(common.CodeInvalidDiscount, "Invalid discount: "+err.Error(), common.KindValidation, err)
		}
		return money.Amount{}, c.fail(span, err)
	}
	if c.metrics != nil {
		c.metrics.DiscountsApplied.WithLabelValues(string(d.Kind)).Inc()
	}
	c.logger.Info().
		Str("sale_id", c.current.ID().String()).
		Str("kind", string(d.Kind)).
		Str("amount_off", off.String()).
		Msg("discount_applied")
	return off, nil
}

// ApplyBestDiscount applies the eligible discount taking the most off the
// current total. ok is false when nothing was eligible.
func (c *Controller) ApplyBestDiscount(ctx context.Context, customerID int64) (applied sale.AppliedDiscount, ok bool, err error) {
	eligible, err := c.EligibleDiscounts(ctx, customerID)
	if err != nil {
		return sale.AppliedDiscount{}, false, err
	}
	best, _, found := discount.Best(eligible, c.current.TotalPrice())
	if !found {
		return sale.AppliedDiscount{}, false, nil
	}
	off, err := c.ApplyDiscount(ctx, best)
	if err != nil {
		return sale.AppliedDiscount{}, false, err
	}
	return sale.AppliedDiscount{Discount: best, Amount: off}, true, nil
}

// FinalizeSaleWithPayment pays the current sale with amount, records it,
// takes the sold items off stock, prints the receipt and returns the change
// rounded to two decimals. Stock updates are best effort.
func (c *Controller) FinalizeSaleWithPayment(ctx context.Context, amount money.Amount) (money.Amount, error) {
	ctx, span := c.tracer.Start(ctx, "checkout.FinalizeSale",
		trace.WithAttributes(attribute.String("payment.amount", amount.String())))
	defer span.End()

	if c.current == nil {
		return money.Amount{}, c.fail(span, ErrNoActiveSale)
	}
	snap, err := c.current.Settle(amount)
	if err != nil {
		if sale.IsValidation(err) {
			c.countSale(obs.ResultInvalid)
			c.logger.Warn().Err(err).Str("sale_id", c.current.ID().String()).Msg("invalid_payment")
			return money.Amount{}, c.fail(span, common.NewAppError(common.CodeInvalidPayment,
				"Invalid payment: "+err.Error(), common.KindValidation, err))
		}
		return money.Amount{}, c.fail(span, c.finalizeFailed(err))
	}
	span.SetAttributes(attribute.String("sale.id", snap.SaleID.String()))

	receipt, err := c.current.GetReceiptInfo(&snap)
	if err != nil {
		return money.Amount{}, c.fail(span, c.finalizeFailed(err))
	}

	acctErr := c.accounting.Account(ctx, snap)
	if acctErr != nil {
		acctErr = fmt.Errorf("account sale: %w", acctErr)
	}
	invErr := c.inventory.UpdateInventory(ctx, snap)
	if invErr != nil {
		invErr = fmt.Errorf("update inventory: %w", invErr)
		c.logger.Warn().Err(invErr).Str("sale_id", snap.SaleID.String()).Msg("inventory_update_failed")
	}
	printErr := c.printer.PrintReceipt(receipt)
	if printErr != nil {
		printErr = fmt.Errorf("print receipt: %w", printErr)
	}
	if acctErr != nil || printErr != nil {
		return money.Amount{}, c.fail(span, c.finalizeFailed(errors.Join(acctErr, invErr, printErr)))
	}

	c.countSale(obs.ResultOK)
	if c.metrics != nil {
		c.metrics.SaleTotal.Observe(snap.TotalPrice.Decimal().InexactFloat64())
	}
	c.exportMetrics()
	c.logger.Info().
		Str("sale_id", snap.SaleID.String()).
		Str("total_price", snap.TotalPrice.String()).
		Str("change", snap.Change.String()).
		Int("items", len(snap.Items)).
		Msg("sale_finalized")
	return snap.Change.Rounded(), nil
}

func (c *Controller) finalizeFailed(err error) error {
	c.countSale(obs.ResultFailed)
	c.logger.Error().Err(err).Msg("finalize_failed")
	return common.NewAppError(common.CodeFinalizeFailed, "An error occurred while finalizing the sale", common.KindInternal, err)
}

func (c *Controller) exportMetrics() {
	if c.textfile == "" || c.gatherer == nil {
		return
	}
	if err := obs.WriteTextfile(c.textfile, c.gatherer); err != nil {
		c.logger.Warn().Err(err).Str("path", c.textfile).Msg("metrics_export_failed")
	}
}

func (c *Controller) countItem(result string) {
	if c.metrics != nil {
		c.metrics.ItemsEntered.WithLabelValues(result).Inc()
	}
}

func (c *Controller) countSale(result string) {
	if c.metrics != nil {
		c.metrics.SalesFinalized.WithLabelValues(result).Inc()
	}
}

func (c *Controller) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
