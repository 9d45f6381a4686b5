// Package metrics exposes Prometheus counters/histograms for submission
// latency, trade throughput, and reconciliation accuracy, plus a gonum
// based percentile summary for ad-hoc latency reporting outside the
// Prometheus scrape path (e.g. the simulator's end-of-run summary).
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/stat"
)

// Recorder holds every metric this service exports.
type Recorder struct {
	SubmissionLatency      prometheus.Histogram
	TradesTotal            prometheus.Counter
	OrdersTotal            prometheus.Counter
	ReconciliationAccuracy prometheus.Gauge

	samplesMu sync.Mutex
	samples   []float64
}

// NewRecorder registers every metric against reg and returns the
// Recorder. Passing prometheus.NewRegistry() in tests keeps metrics
// isolated from the process-wide default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		SubmissionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchcore",
			Subsystem: "matching",
			Name:      "submission_latency_seconds",
			Help:      "Time to process one order submission end to end.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16),
		}),
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "matching",
			Name:      "trades_total",
			Help:      "Total number of trades executed.",
		}),
		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "matching",
			Name:      "orders_total",
			Help:      "Total number of orders submitted.",
		}),
		ReconciliationAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Subsystem: "reconciliation",
			Name:      "accuracy_percent",
			Help:      "Accuracy percentage from the most recent reconciliation run.",
		}),
	}

	reg.MustRegister(r.SubmissionLatency, r.TradesTotal, r.OrdersTotal, r.ReconciliationAccuracy)
	return r
}

// RecordSubmission records one submission's latency and trade count.
func (r *Recorder) RecordSubmission(latency time.Duration, tradeCount int) {
	r.SubmissionLatency.Observe(latency.Seconds())
	r.OrdersTotal.Inc()
	if tradeCount > 0 {
		r.TradesTotal.Add(float64(tradeCount))
	}

	r.samplesMu.Lock()
	r.samples = append(r.samples, latency.Seconds())
	r.samplesMu.Unlock()
}

// RecordReconciliation sets the latest accuracy gauge value.
func (r *Recorder) RecordReconciliation(accuracy float64) {
	r.ReconciliationAccuracy.Set(accuracy)
}

// LatencySummary is a point-in-time percentile breakdown of every
// submission latency sample recorded so far.
type LatencySummary struct {
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
	N   int
}

// Percentiles computes p50/p95/p99 over every recorded submission
// latency using gonum's quantile estimator (empirical CDF, no
// interpolation: each percentile is one of the recorded samples).
func (r *Recorder) Percentiles() LatencySummary {
	r.samplesMu.Lock()
	samples := append([]float64(nil), r.samples...)
	r.samplesMu.Unlock()

	if len(samples) == 0 {
		return LatencySummary{}
	}

	sort.Float64s(samples)
	return LatencySummary{
		P50: toDuration(stat.Quantile(0.50, stat.Empirical, samples, nil)),
		P95: toDuration(stat.Quantile(0.95, stat.Empirical, samples, nil)),
		P99: toDuration(stat.Quantile(0.99, stat.Empirical, samples, nil)),
		N:   len(samples),
	}
}

func toDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
