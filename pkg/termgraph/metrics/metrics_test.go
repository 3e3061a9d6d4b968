package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := New(reg)

	m.ObserveStage(StageExtract, 10*time.Millisecond)
	m.Since(StageDetect, time.Now())
	m.Counts(12, 3, 20, 2)
	m.Fallback()
	m.AnalysisDone(nil)
	m.AnalysisDone(errors.New("boom"))

	assert.Equal(t, 12.0, testutil.ToFloat64(m.TermsExtracted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.VariantsMerged))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.EdgesBuilt))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GroupsDetected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DetectionFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues("error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStage(StageGraph, time.Second)
		m.Counts(1, 1, 1, 1)
		m.Fallback()
		m.AnalysisDone(nil)
	})
}

func TestUnregistered(t *testing.T) {
	m := New(nil)
	m.Counts(5, 0, 0, 0)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.TermsExtracted))
}
