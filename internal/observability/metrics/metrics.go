package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking client.
type BookingMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	bookingsTotal  *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pedibook",
			Subsystem: "clinicapi",
			Name:      "requests_total",
			Help:      "Total clinic API requests",
		}, []string{"op", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pedibook",
			Subsystem: "clinicapi",
			Name:      "request_latency_seconds",
			Help:      "Latency of clinic API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pedibook",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.bookingsTotal)
	return m
}

func (m *BookingMetrics) ObserveRequest(op, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(op, status).Inc()
	m.requestLatency.WithLabelValues(op).Observe(seconds)
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}
