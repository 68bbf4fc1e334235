package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking attempt outcomes.
const (
	OutcomeCreated     = "created"
	OutcomeConflict    = "seats_unavailable"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "storage_unavailable"
	OutcomeError       = "error"
)

var (
	BookingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seatengine_booking_attempts_total",
		Help: "Booking creation attempts by outcome",
	}, []string{"outcome"})

	SeatsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seatengine_seats_released_total",
		Help: "Seats returned to available by cancellation or admin clears",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seatengine_bookings_cancelled_total",
		Help: "Bookings moved to CANCELLED",
	})

	AtomicUnitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seatengine_atomic_unit_duration_seconds",
		Help:    "Time spent inside one (bus, route) atomic unit, lock wait included",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// ObserveUnit records the duration of an atomic unit started at start.
func ObserveUnit(op string, start time.Time) {
	AtomicUnitDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
