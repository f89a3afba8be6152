package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"devlink/internal/observability/metrics"
)

func TestMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.CodeGenerated()
	m.CodeGenerated()
	m.LinkAttempt(metrics.OutcomeLinked)
	m.LinkAttempt(metrics.OutcomeExpired)
	m.LinkAttempt(metrics.OutcomeExpired)
	m.DeviceUnlinked()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CodesGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinkAttempts.WithLabelValues(metrics.OutcomeLinked)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinkAttempts.WithLabelValues(metrics.OutcomeExpired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DevicesUnlinked))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.CodeGenerated()
		m.LinkAttempt(metrics.OutcomeLinked)
		m.DeviceUnlinked()
	})
}
