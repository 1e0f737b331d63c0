package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// BusinessMetrics tracks purchase order activity: orders placed, money paid
// to vendors and units received into stock. A nil *BusinessMetrics is a no-op.
type BusinessMetrics struct {
	ordersCreated  prometheus.Counter
	orderAmount    prometheus.Counter
	payments       prometheus.Counter
	paymentAmount  prometheus.Counter
	unitsReceived  prometheus.Counter
	eventsRejected *prometheus.CounterVec
}

func newBusinessMetrics() *BusinessMetrics {
	return &BusinessMetrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "purchase_orders_created_total",
			Help:      "Total number of purchase orders created.",
		}),
		orderAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "purchase_order_amount_total",
			Help:      "Sum of grand totals of created purchase orders.",
		}),
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "vendor_payments_total",
			Help:      "Total number of vendor payments recorded.",
		}),
		paymentAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "vendor_payment_amount_total",
			Help:      "Sum of recorded vendor payment amounts.",
		}),
		unitsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "units_received_total",
			Help:      "Total number of units received against purchase orders.",
		}),
		eventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "event_publish_failures_total",
			Help:      "Domain events that could not be published, by event type.",
		}, []string{"event_type"}),
	}
}

func (b *BusinessMetrics) register(r prometheus.Registerer) {
	r.MustRegister(b.ordersCreated, b.orderAmount, b.payments, b.paymentAmount, b.unitsReceived, b.eventsRejected)
}

// RecordOrderCreated counts a new order and adds its grand total.
func (b *BusinessMetrics) RecordOrderCreated(grandTotal decimal.Decimal) {
	if b == nil {
		return
	}
	b.ordersCreated.Inc()
	if grandTotal.IsPositive() {
		b.orderAmount.Add(grandTotal.InexactFloat64())
	}
}

// RecordPayment counts a vendor payment and adds its amount.
func (b *BusinessMetrics) RecordPayment(amount decimal.Decimal) {
	if b == nil {
		return
	}
	b.payments.Inc()
	if amount.IsPositive() {
		b.paymentAmount.Add(amount.InexactFloat64())
	}
}

// RecordUnitsReceived adds qty received units.
func (b *BusinessMetrics) RecordUnitsReceived(qty int) {
	if b == nil || qty <= 0 {
		return
	}
	b.unitsReceived.Add(float64(qty))
}

// RecordPublishFailure counts an event that could not be delivered.
func (b *BusinessMetrics) RecordPublishFailure(eventType string) {
	if b == nil {
		return
	}
	b.eventsRejected.WithLabelValues(eventType).Inc()
}
