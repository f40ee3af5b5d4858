package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveGeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveGeneration("itinerary", "ok", 1, 2*time.Second)
	m.ObserveGeneration("itinerary", "TIMEOUT", 3, 5*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("itinerary", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("itinerary", "TIMEOUT")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("itinerary")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.GenerationDuration))
}

func TestSetAvailability(t *testing.T) {
	m := New(nil)
	reasons := []string{"available", "not_ready", "not_enabled"}

	m.SetAvailability("not_ready", reasons)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Availability.WithLabelValues("not_ready")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Availability.WithLabelValues("available")))

	m.SetAvailability("available", reasons)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Availability.WithLabelValues("not_ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Availability.WithLabelValues("available")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveGeneration("note", "ok", 1, time.Second)
		m.SetAvailability("available", nil)
	})
}
