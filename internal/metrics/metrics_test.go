package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInit_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestObserveValuation(t *testing.T) {
	before := testutil.ToFloat64(ValuationsTotal.WithLabelValues("preview", "Good"))
	ObserveValuation("preview", "Good", 65)
	assert.Equal(t, before+1, testutil.ToFloat64(ValuationsTotal.WithLabelValues("preview", "Good")))
}

func TestObserveHTTP(t *testing.T) {
	counter := HTTPRequests.WithLabelValues("GET", "/offers/{id}", "404")
	before := testutil.ToFloat64(counter)
	ObserveHTTP("GET", "/offers/{id}", 404, 15*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
