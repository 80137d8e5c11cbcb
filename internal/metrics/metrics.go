package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// Recorder groups the counters the checkout flow reports.
type Recorder struct {
	CartMutations       *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	OrdersCreated       *prometheus.CounterVec
	CapturesCompleted   *prometheus.CounterVec
	CheckoutOutcomes    *prometheus.CounterVec
}

// NewRecorder registers the counters on reg. Pass prometheus.NewRegistry()
// in tests so recorders do not collide.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		CartMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		PersistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "persistence_failures_total",
			Help:      "Durable storage reads or writes that failed and were degraded.",
		}, []string{"op"}),
		OrdersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "orders_created_total",
			Help:      "Payment orders created, by provider.",
		}, []string{"provider"}),
		CapturesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "captures_completed_total",
			Help:      "Completed captures, by provider.",
		}, []string{"provider"}),
		CheckoutOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "outcomes_total",
			Help:      "Checkout flows that ended, by path and outcome.",
		}, []string{"path", "outcome"}),
	}
}
