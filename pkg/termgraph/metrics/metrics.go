// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "termgraph"

// Pipeline stage labels.
const (
	StageExtract = "extract"
	StageMerge   = "merge"
	StageGraph   = "graph"
	StageDetect  = "detect"
	StageName    = "name"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	StageDuration      *prometheus.HistogramVec
	Analyses           *prometheus.CounterVec
	TermsExtracted     prometheus.Counter
	VariantsMerged     prometheus.Counter
	EdgesBuilt         prometheus.Counter
	GroupsDetected     prometheus.Counter
	DetectionFallbacks prometheus.Counter
}

// New creates the collectors and registers them on reg. With a nil
// registerer the collectors work but are not exported.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each analysis pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"stage"}),
		Analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses run, by outcome",
		}, []string{"status"}),
		TermsExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terms_extracted_total",
			Help:      "Scored terms produced by extraction",
		}),
		VariantsMerged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variants_merged_total",
			Help:      "Terms absorbed into a representative",
		}),
		EdgesBuilt: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_built_total",
			Help:      "Co-occurrence edges emitted",
		}),
		GroupsDetected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_detected_total",
			Help:      "Communities detected",
		}),
		DetectionFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_fallbacks_total",
			Help:      "Community detections that fell back to a single group",
		}),
	}
}

// ObserveStage records the duration of one stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Since is ObserveStage measured from start.
func (m *Metrics) Since(stage string, start time.Time) {
	m.ObserveStage(stage, time.Since(start))
}

// AnalysisDone counts a finished analysis.
func (m *Metrics) AnalysisDone(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Analyses.WithLabelValues(status).Inc()
}

// Counts adds the sizes produced by one analysis.
func (m *Metrics) Counts(terms, variants, edges, groups int) {
	if m == nil {
		return
	}
	m.TermsExtracted.Add(float64(terms))
	m.VariantsMerged.Add(float64(variants))
	m.EdgesBuilt.Add(float64(edges))
	m.GroupsDetected.Add(float64(groups))
}

// Fallback counts a community detection fallback.
func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.DetectionFallbacks.Inc()
}
