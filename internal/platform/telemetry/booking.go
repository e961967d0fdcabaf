package telemetry

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts appointment lifecycle events. A nil *BookingMetrics
// is valid and records nothing.
type BookingMetrics struct {
	created       *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	cancellations prometheus.Counter
	availability  *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "appointments_created_total",
			Help:      "Appointments booked, by consultation type",
		}, []string{"consultation_type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "rejections_total",
			Help:      "Booking attempts rejected, by reason",
		}, []string{"reason"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Appointments cancelled",
		}),
		availability: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "availability_checks_total",
			Help:      "Availability lookups, by kind (day, slot) and result",
		}, []string{"kind", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.created, m.rejections, m.cancellations, m.availability)
	return m
}

func (m *BookingMetrics) ObserveCreated(consultationType string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(consultationType).Inc()
}

func (m *BookingMetrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *BookingMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}

func (m *BookingMetrics) ObserveAvailabilityCheck(kind, result string) {
	if m == nil {
		return
	}
	m.availability.WithLabelValues(kind, result).Inc()
}
