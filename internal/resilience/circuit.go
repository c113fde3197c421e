package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned while the breaker sheds calls.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State of a breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

var stateNames = map[State]string{Closed: "closed", Open: "open", HalfOpen: "half_open"}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// gauge is the value exported on the breaker_state series.
func (s State) gauge() float64 {
	switch s {
	case Closed, Open, HalfOpen:
		return float64(s)
	default:
		return -1
	}
}

// window counts outcomes seen while closed. It is halved once it grows past
// twice the minimum so old outcomes fade.
type window struct {
	ok, failed int
}

func (w *window) add(success bool) {
	if success {
		w.ok++
		return
	}
	w.failed++
}

func (w window) total() int { return w.ok + w.failed }

func (w window) failureRatio() float64 {
	if w.total() == 0 {
		return 0
	}
	return float64(w.failed) / float64(w.total())
}

func (w *window) decay() {
	w.ok = (w.ok + 1) / 2
	w.failed = (w.failed + 1) / 2
}

// Breaker trips once the failure ratio over at least minRequests calls
// reaches the threshold, sheds calls for openFor, then lets a trial call
// decide whether to close again.
type Breaker struct {
	mu          sync.Mutex
	state       State
	counts      window
	minRequests int
	threshold   float64
	openFor     time.Duration
	openedAt    time.Time

	target  string
	logger  zerolog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewBreaker builds a closed breaker. Out-of-range arguments fall back to one
// request, a 0.5 ratio and a 30s cool-off.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	b := &Breaker{
		minRequests: max(minRequests, 1),
		threshold:   failureRatio,
		openFor:     openFor,
		target:      "default",
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	switch {
	case b.threshold <= 0:
		b.threshold = 0.5
	case b.threshold > 1:
		b.threshold = 1
	}
	if b.openFor <= 0 {
		b.openFor = 30 * time.Second
	}
	return b
}

// Call runs fn when the breaker allows it and reports the outcome. Errors for
// which isFailure returns false (e.g. a lookup miss) count as successes.
// ErrOpenCircuit is returned without calling fn while the breaker is open.
func (b *Breaker) Call(ctx context.Context, fn func(context.Context) error, isFailure func(error) bool) error {
	if !b.Allow(ctx) {
		return ErrOpenCircuit
	}
	err := fn(ctx)
	failed := err != nil
	if failed && isFailure != nil {
		failed = isFailure(err)
	}
	b.Report(ctx, !failed)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may go through. An open breaker turns
// half-open once the cool-off has passed.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return true
	}
	if b.now().Sub(b.openedAt) < b.openFor {
		return false
	}
	b.moveLocked(ctx, HalfOpen)
	return true
}

// Report feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
	case HalfOpen:
		if success {
			b.moveLocked(ctx, Closed)
		} else {
			b.moveLocked(ctx, Open)
		}
	case Closed:
		b.counts.add(success)
		switch {
		case b.counts.total() < b.minRequests:
		case b.counts.failureRatio() >= b.threshold:
			b.moveLocked(ctx, Open)
		case b.counts.total() > 2*b.minRequests:
			b.counts.decay()
		}
	}
}

// WithTarget labels metrics and logs with the guarded dependency.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t := strings.TrimSpace(target); t != "" {
		b.target = t
	}
	b.publishLocked()
	return b
}

// WithLogger sets the logger for transition events. A logger carried by the
// call context takes precedence.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// WithMetrics attaches Prometheus collectors for state and transitions.
func (b *Breaker) WithMetrics(m *Metrics) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = m
	b.publishLocked()
	return b
}

// WithClock replaces time.Now, for tests.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now != nil {
		b.now = now
	}
	return b
}

func (b *Breaker) moveLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.counts = window{}
	if next == Open {
		b.openedAt = b.now()
	}
	b.publishLocked()
	if b.metrics != nil {
		b.metrics.Transitions.WithLabelValues(b.target, prev.String(), next.String()).Inc()
		if next == Open {
			b.metrics.Opened.WithLabelValues(b.target).Inc()
		}
	}

	logger := b.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	evt := logger.Info().
		Str("target", b.target).
		Str("from_state", prev.String()).
		Str("to_state", next.String())
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) publishLocked() {
	if b.metrics != nil {
		b.metrics.State.WithLabelValues(b.target).Set(b.state.gauge())
	}
}
