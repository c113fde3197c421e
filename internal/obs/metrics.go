package obs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Item entry outcomes used as the result label.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultUnavailable = "unavailable"
	ResultInvalid     = "invalid"
	ResultFailed      = "failed"
)

// Metrics groups the register's Prometheus collectors.
type Metrics struct {
	ItemsEntered     *prometheus.CounterVec
	SalesFinalized   *prometheus.CounterVec
	DiscountsApplied *prometheus.CounterVec
	SaleTotal        prometheus.Histogram
	Revenue          prometheus.Gauge
}

// NewMetrics registers and returns the register collectors. Collectors that
// are already registered on reg are reused.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ItemsEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_entered_total",
			Help:      "Count of item entries by outcome.",
		}, []string{"result"}),
		SalesFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_finalized_total",
			Help:      "Count of sale finalization attempts by outcome.",
		}, []string{"result"}),
		DiscountsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discounts_applied_total",
			Help:      "Count of discounts applied by kind.",
		}, []string{"kind"}),
		SaleTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_total_price",
			Help:      "Distribution of finalized sale totals.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
		}),
		Revenue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Revenue accumulated since the register started.",
		}),
	}

	var errs []error
	errs = append(errs, registerCollector(reg, m.ItemsEntered, func(c prometheus.Collector) {
		if v, ok := c.(*prometheus.CounterVec); ok {
			m.ItemsEntered = v
		}
	}))
	errs = append(errs, registerCollector(reg, m.SalesFinalized, func(c prometheus.Collector) {
		if v, ok := c.(*prometheus.CounterVec); ok {
			m.SalesFinalized = v
		}
	}))
	errs = append(errs, registerCollector(reg, m.DiscountsApplied, func(c prometheus.Collector) {
		if v, ok := c.(*prometheus.CounterVec); ok {
			m.DiscountsApplied = v
		}
	}))
	errs = append(errs, registerCollector(reg, m.SaleTotal, func(c prometheus.Collector) {
		if v, ok := c.(prometheus.Histogram); ok {
			m.SaleTotal = v
		}
	}))
	errs = append(errs, registerCollector(reg, m.Revenue, func(c prometheus.Collector) {
		if v, ok := c.(prometheus.Gauge); ok {
			m.Revenue = v
		}
	}))
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteTextfile exports everything g gathers in the node exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("obs: write metrics textfile: %w", err)
	}
	return nil
}

func registerCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) error {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			reuse(are.ExistingCollector)
			return nil
		}
		return fmt.Errorf("register metric: %w", err)
	}
	return nil
}
