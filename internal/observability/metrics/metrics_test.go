package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("created")
	m.ObserveBooking("created")
	m.ObserveBooking("conflict")

	created := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("created"))
	if created != 2 {
		t.Errorf("expected 2 created, got %v", created)
	}
	conflict := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("conflict"))
	if conflict != 1 {
		t.Errorf("expected 1 conflict, got %v", conflict)
	}
}

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveMessage("ok", "3")
	m.ObserveMessage("error", "3")
	m.ObserveStream(0.8, 12)

	ok := testutil.ToFloat64(m.messagesTotal.WithLabelValues("ok", "3"))
	if ok != 1 {
		t.Errorf("expected 1 ok turn, got %v", ok)
	}
	if n := testutil.CollectAndCount(m.streamDuration); n != 1 {
		t.Errorf("expected stream histogram registered, got %d series", n)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var b *BookingMetrics
	b.ObserveBooking("created")

	var c *ChatMetrics
	c.ObserveMessage("ok", "1")
	c.ObserveStream(0.1, 1)
}
