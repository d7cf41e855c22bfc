package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking flow.
type BookingMetrics struct {
	bookingsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consulting",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Booking mutations by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// ChatMetrics exposes counters/histograms for the chat flow.
type ChatMetrics struct {
	messagesTotal   *prometheus.CounterVec
	streamDuration  prometheus.Histogram
	deltasPerStream prometheus.Histogram
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consulting",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Chat turns by outcome and stage sent upstream",
		}, []string{"outcome", "stage"}),
		streamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "consulting",
			Subsystem: "chat",
			Name:      "stream_duration_seconds",
			Help:      "Time from gateway request to end of stream",
			Buckets:   prometheus.DefBuckets,
		}),
		deltasPerStream: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "consulting",
			Subsystem: "chat",
			Name:      "stream_deltas",
			Help:      "Content deltas received per assistant reply",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.streamDuration, m.deltasPerStream)
	return m
}

func (m *ChatMetrics) ObserveMessage(outcome, stage string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(outcome, stage).Inc()
}

func (m *ChatMetrics) ObserveStream(seconds float64, deltas int) {
	if m == nil {
		return
	}
	m.streamDuration.Observe(seconds)
	m.deltasPerStream.Observe(float64(deltas))
}
