package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics records counters for the core back-office operations.
type DomainMetrics struct {
	ordersCreated      *prometheus.CounterVec
	orderTransitions   *prometheus.CounterVec
	paymentsRecorded   *prometheus.CounterVec
	reservationFailed  prometheus.Counter
	allocationDuration prometheus.Histogram
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labeled by payment status at creation.",
	}, []string{"payment_status"})
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions, labeled by from/to status.",
	}, []string{"from", "to"})
	paymentsRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Payments recorded, labeled by mode.",
	}, []string{"mode"})
	reservationFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_reservation_failures_total",
		Help: "Order stock reservations rejected for insufficient quantity.",
	})
	allocationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_allocation_duration_seconds",
		Help:    "Duration of client payment allocation in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ordersCreated, orderTransitions, paymentsRecorded, reservationFailed, allocationDuration)
	return &DomainMetrics{
		ordersCreated:      ordersCreated,
		orderTransitions:   orderTransitions,
		paymentsRecorded:   paymentsRecorded,
		reservationFailed:  reservationFailed,
		allocationDuration: allocationDuration,
	}
}

// IncOrderCreated increments the order creation counter.
func (m *DomainMetrics) IncOrderCreated(paymentStatus string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentStatus)).Inc()
}

// IncOrderTransition increments the transition counter for a from/to pair.
func (m *DomainMetrics) IncOrderTransition(from, to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncPaymentRecorded increments the payment counter for a mode.
func (m *DomainMetrics) IncPaymentRecorded(mode string) {
	if m == nil || m.paymentsRecorded == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncReservationFailed increments the insufficient-stock counter.
func (m *DomainMetrics) IncReservationFailed() {
	if m == nil || m.reservationFailed == nil {
		return
	}
	m.reservationFailed.Inc()
}

// ObserveAllocationDuration records how long a payment allocation took.
func (m *DomainMetrics) ObserveAllocationDuration(duration time.Duration) {
	if m == nil || m.allocationDuration == nil {
		return
	}
	m.allocationDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
