package resilience

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the breaker collectors. One instance may serve many breakers;
// series are labelled by target.
type Metrics struct {
	State       *prometheus.GaugeVec
	Transitions *prometheus.CounterVec
	Opened      *prometheus.CounterVec
}

// NewMetrics registers breaker collectors on reg, reusing collectors that are
// already registered.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open",
		}, []string{"target"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions",
		}, []string{"target", "from", "to"}),
		Opened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_open_total",
			Help:      "Number of times a breaker transitioned into open state",
		}, []string{"target"}),
	}
	if err := register(reg, m.State, func(c prometheus.Collector) {
		if v, ok := c.(*prometheus.GaugeVec); ok {
			m.State = v
		}
	}); err != nil {
		return nil, err
	}
	if err := register(reg, m.Transitions, func(c prometheus.Collector) {
		if v, ok := c.(*prometheus.CounterVec); ok {
			m.Transitions = v
		}
	}); err != nil {
		return nil, err
	}
	if err := register(reg, m.Opened, func(c prometheus.Collector) {
		if v, ok := c.(*prometheus.CounterVec); ok {
			m.Opened = v
		}
	}); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector, reuse func(prometheus.Collector)) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			reuse(are.ExistingCollector)
			return nil
		}
		return err
	}
	return nil
}
