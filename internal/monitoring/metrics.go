package monitoring

import (
	"net/http"

	"mensa/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for cart and order activity.
type Metrics struct {
	registry *prometheus.Registry

	cartOps      *prometheus.CounterVec
	ordersPlaced *prometheus.CounterVec
	orderTotals  prometheus.Histogram
	transitions  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	cartOps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Cart mutations by operation and outcome",
		},
		[]string{"operation", "result"},
	)

	ordersPlaced := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders placed by vendor and kind",
		},
		[]string{"vendor", "kind"},
	)

	orderTotals := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_total_amount",
			Help:    "Order totals at checkout",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)

	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions by source and target status",
		},
		[]string{"from", "to"},
	)

	for _, collector := range []prometheus.Collector{cartOps, ordersPlaced, orderTotals, transitions} {
		registry.MustRegister(collector)
	}

	return &Metrics{
		registry:     registry,
		cartOps:      cartOps,
		ordersPlaced: ordersPlaced,
		orderTotals:  orderTotals,
		transitions:  transitions,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCartOp records one cart mutation attempt.
func (m *Metrics) RecordCartOp(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cartOps.WithLabelValues(operation, result).Inc()
}

// RecordOrderPlaced records a successful checkout.
func (m *Metrics) RecordOrderPlaced(order *models.Order) {
	m.ordersPlaced.WithLabelValues(order.VendorID, string(order.Kind)).Inc()
	m.orderTotals.Observe(order.Total)
}

// RecordTransition records a successful status transition.
func (m *Metrics) RecordTransition(from, to models.OrderStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}
