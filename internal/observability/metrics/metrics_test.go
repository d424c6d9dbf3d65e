package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequestCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveRequest("available_slots", "ok", 0.05)
	m.ObserveRequest("available_slots", "ok", 0.10)
	m.ObserveRequest("create_booking", "409", 0.02)

	expected := `
		# HELP pedibook_clinicapi_requests_total Total clinic API requests
		# TYPE pedibook_clinicapi_requests_total counter
		pedibook_clinicapi_requests_total{op="available_slots",status="ok"} 2
		pedibook_clinicapi_requests_total{op="create_booking",status="409"} 1
	`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "pedibook_clinicapi_requests_total"); err != nil {
		t.Fatal(err)
	}
}

func TestObserveBookingOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("confirmed")
	m.ObserveBooking("error")
	m.ObserveBooking("error")

	expected := `
		# HELP pedibook_booking_submissions_total Booking submissions by outcome
		# TYPE pedibook_booking_submissions_total counter
		pedibook_booking_submissions_total{outcome="confirmed"} 1
		pedibook_booking_submissions_total{outcome="error"} 2
	`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "pedibook_booking_submissions_total"); err != nil {
		t.Fatal(err)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveRequest("list_doctors", "ok", 0.01)
	m.ObserveBooking("confirmed")
}
