package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tscswap/backend/core/swap"
)

// PrometheusRecorder exposes the bookkeeping of every matching run as prometheus metrics.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	ineligible *prometheus.CounterVec
	matches    *prometheus.CounterVec
	conflicts  prometheus.Counter
	truncated  prometheus.Counter
	duration   *prometheus.HistogramVec
	candidates prometheus.Histogram
}

var _ swap.Recorder = (*PrometheusRecorder)(nil) // interface compliance check

func NewPrometheusRecorder(appName string) *PrometheusRecorder {
	ns := namespace(appName)
	rec := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "match_runs_total",
			Help:      "Total number of matching runs",
		}, []string{"kind", "status"}),
		ineligible: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "match_ineligible_anchors_total",
			Help:      "Matching runs refused because the anchor was ineligible",
		}, []string{"reason"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "matches_found_total",
			Help:      "Total number of matches found",
		}, []string{"type"}), // type = "mutual", "complete", "incomplete"
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "match_conflicts_total",
			Help:      "Triangle records found with conflicting completeness",
		}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "match_candidates_truncated_total",
			Help:      "Candidates dropped by the candidate cap",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "match_duration_seconds",
			Help:      "Matching run latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"kind"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "match_candidates",
			Help:      "Size of the candidate pool per matching run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	rec.registry.MustRegister(
		rec.runs,
		rec.ineligible,
		rec.matches,
		rec.conflicts,
		rec.truncated,
		rec.duration,
		rec.candidates,
		prometheus.NewGoCollector(),
	)
	return rec
}

func (rec *PrometheusRecorder) RecordRun(stats swap.RunStats) {
	kind := string(stats.Kind)
	rec.runs.WithLabelValues(kind, string(stats.Status)).Inc()
	rec.duration.WithLabelValues(kind).Observe(stats.Duration.Seconds())

	if stats.Status == swap.StatusAnchorIneligible {
		rec.ineligible.WithLabelValues(string(stats.Reason)).Inc()
		return
	}
	rec.candidates.Observe(float64(stats.Candidates))
	rec.matches.WithLabelValues("mutual").Add(float64(stats.Mutual))
	rec.matches.WithLabelValues("complete").Add(float64(stats.Complete))
	rec.matches.WithLabelValues("incomplete").Add(float64(stats.Incomplete))
	rec.conflicts.Add(float64(stats.Conflicts))
	rec.truncated.Add(float64(stats.Truncated))
}

// Handler returns the HTTP handler serving the recorder's registry.
func (rec *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(rec.registry, promhttp.HandlerOpts{})
}

func namespace(appName string) string {
	ns := strings.ToLower(strings.TrimSpace(appName))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(ns)
}
