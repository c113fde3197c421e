package revenue

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-register/internal/money"
)

// ErrNoRenderer is reported when a tracker has nothing to render to.
var ErrNoRenderer = errors.New("revenue: renderer not configured")

// Renderer displays an accumulated revenue total. It may fail.
type Renderer interface {
	Render(total money.Amount) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(total money.Amount) error

func (f RendererFunc) Render(total money.Amount) error {
	return f(total)
}

// Tracker is a sale observer that owns a running revenue total. Each update
// first accumulates the sale total, then renders the new running total.
// Render failures are logged and never undo the accumulation.
type Tracker struct {
	mu       sync.Mutex
	name     string
	total    money.Amount
	renderer Renderer
	logger   zerolog.Logger
}

// NewTracker builds a tracker that renders to r. name labels log events.
func NewTracker(name string, r Renderer, logger zerolog.Logger) *Tracker {
	return &Tracker{name: name, renderer: r, logger: logger}
}

// UpdateTotalRevenue implements sale.Observer.
func (t *Tracker) UpdateTotalRevenue(saleTotal money.Amount) {
	total := t.Accumulate(saleTotal)
	if err := t.render(total); err != nil {
		t.logger.Error().
			Err(err).
			Str("observer", t.name).
			Str("total_revenue", total.String()).
			Msg("revenue_render_failed")
	}
}

// Accumulate adds saleTotal to the running total and returns the new value.
func (t *Tracker) Accumulate(saleTotal money.Amount) money.Amount {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = t.total.Add(saleTotal)
	return t.total
}

// Total returns the revenue observed so far.
func (t *Tracker) Total() money.Amount {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *Tracker) render(total money.Amount) error {
	if t.renderer == nil {
		return ErrNoRenderer
	}
	return t.renderer.Render(total)
}
