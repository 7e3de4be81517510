package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("test_endpoint", "2xx")
		IncCommitted()
		IncCancelled()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(holdOutcomes.WithLabelValues("conflict"))
	IncHold("conflict")
	assert.Equal(t, before+1, testutil.ToFloat64(holdOutcomes.WithLabelValues("conflict")))

	swept := testutil.ToFloat64(holdsSwept)
	AddSwept(0)
	AddSwept(3)
	assert.Equal(t, swept+3, testutil.ToFloat64(holdsSwept))

	failures := testutil.ToFloat64(inventoryFailures.WithLabelValues("createBooking"))
	IncInventoryFailure("createBooking")
	assert.Equal(t, failures+1, testutil.ToFloat64(inventoryFailures.WithLabelValues("createBooking")))
}
