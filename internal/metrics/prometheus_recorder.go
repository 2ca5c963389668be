package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

const namespace = "subdocs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	syncDuration  *prom.HistogramVec
	localeResults *prom.CounterVec
	rewrites      *prom.CounterVec
	runDuration   prom.Histogram
	runOutcome    *prom.CounterVec
	navEntries    *prom.GaugeVec
	lastRun       prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		syncDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of subrepo clone/pull operations",
			Buckets:   prom.DefBuckets,
		}, []string{"subrepo", "result"}),
		localeResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "locale_results_total",
			Help:      "Subrepo/locale outcomes (copied or skipped)",
		}, []string{"locale", "outcome"}),
		rewrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rewritten_references_total",
			Help:      "Asset references rewritten in copied documentation",
		}, []string{"subrepo"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total aggregation run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Aggregation runs by final status",
		}, []string{"outcome"}),
		navEntries: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "navigation_entries",
			Help:      "Navigation fragment entries by state for the last generation",
		}, []string{"locale", "state"}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished aggregation run",
		}),
	}
	reg.MustRegister(pr.syncDuration, pr.localeResults, pr.rewrites, pr.runDuration, pr.runOutcome, pr.navEntries, pr.lastRun)
	return pr
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveSyncDuration(subrepo string, d time.Duration, success bool) {
	p.syncDuration.WithLabelValues(subrepo, result(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLocaleOutcome(locale string, outcome Outcome) {
	p.localeResults.WithLabelValues(locale, string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddRewrittenReferences(subrepo string, n int) {
	if n <= 0 {
		return
	}
	p.rewrites.WithLabelValues(subrepo).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetNavigationEntries(locale string, included, missing int) {
	p.navEntries.WithLabelValues(locale, "included").Set(float64(included))
	p.navEntries.WithLabelValues(locale, "missing").Set(float64(missing))
}

// WriteTextfile writes every metric of g to path in the text exposition
// format read by the node-exporter textfile collector. The write is atomic.
func WriteTextfile(g prom.Gatherer, path string) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return errors.FileSystemError("failed to write metrics textfile").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
