package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotel_booking"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status class.",
		},
		[]string{"endpoint", "status"},
	)

	holdOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_holds_total",
			Help:      "Hold acquisition attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingsCommitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_committed_total",
		Help:      "Bookings created in the Inventory Service.",
	})

	bookingsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_cancelled_total",
		Help:      "Bookings cancelled.",
	})

	inventoryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_failures_total",
			Help:      "Failed Inventory Service calls by operation.",
		},
		[]string{"operation"},
	)

	holdsSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "holds_swept_total",
		Help:      "Expired holds removed by the sweeper.",
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, holdOutcomes, bookingsCommitted, bookingsCancelled, inventoryFailures, holdsSwept)
	})
}

func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncHold records one hold attempt: "acquired", "conflict" or "error".
func IncHold(outcome string) {
	holdOutcomes.WithLabelValues(outcome).Inc()
}

func IncCommitted() {
	bookingsCommitted.Inc()
}

func IncCancelled() {
	bookingsCancelled.Inc()
}

func IncInventoryFailure(operation string) {
	inventoryFailures.WithLabelValues(operation).Inc()
}

func AddSwept(n int64) {
	if n > 0 {
		holdsSwept.Add(float64(n))
	}
}
