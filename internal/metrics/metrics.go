package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyroom",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by pool.",
		},
		[]string{"pool"},
	)

	bookingExtended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyroom",
			Name:      "booking_extended_total",
			Help:      "Count of booking extensions by pool.",
		},
		[]string{"pool"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studyroom",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled by users.",
		},
	)

	bookingConflict = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyroom",
			Name:      "booking_conflict_total",
			Help:      "Count of reservation attempts rejected by the conflict checker.",
		},
		[]string{"pool"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyroom",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingExtended, bookingCancelled, bookingConflict, httpRequests)
	})
}

func IncBookingCreated(pool string) {
	bookingCreated.WithLabelValues(pool).Inc()
}

func IncBookingExtended(pool string) {
	bookingExtended.WithLabelValues(pool).Inc()
}

func AddBookingsCancelled(n int) {
	bookingCancelled.Add(float64(n))
}

func IncConflict(pool string) {
	bookingConflict.WithLabelValues(pool).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
