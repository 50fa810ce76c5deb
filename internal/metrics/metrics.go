// Package metrics records build-run metrics on a private Prometheus
// registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tennismetrics"

// Recorder owns the registry and every collector of one process.
type Recorder struct {
	registry *prometheus.Registry

	rowsIngested  prometheus.Counter
	rowsFlagged   *prometheus.CounterVec
	players       prometheus.Gauge
	h2hPairs      prometheus.Gauge
	indexEntries  *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		rowsIngested: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_ingested_total",
			Help:      "Match rows read by the pipeline.",
		}),
		rowsFlagged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_flagged_total",
			Help:      "Match rows flagged during a run, by reason.",
		}, []string{"reason"}),
		players: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players",
			Help:      "Players in the last career table.",
		}),
		h2hPairs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "h2h_pairs",
			Help:      "Player pairs in the last head-to-head matrix.",
		}),
		indexEntries: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_entries",
			Help:      "Ranked entries per composite index.",
		}, []string{"index"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
	}
}

// Registry exposes the private registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) RowsIngested(n int) {
	if r == nil {
		return
	}
	r.rowsIngested.Add(float64(n))
}

// RowFlagged counts one flagged row under reason.
func (r *Recorder) RowFlagged(reason string) {
	if r == nil {
		return
	}
	r.rowsFlagged.WithLabelValues(reason).Inc()
}

func (r *Recorder) Players(n int) {
	if r == nil {
		return
	}
	r.players.Set(float64(n))
}

func (r *Recorder) H2HPairs(n int) {
	if r == nil {
		return
	}
	r.h2hPairs.Set(float64(n))
}

// IndexEntries records the size of a ranked index ("nbi", "gsdi").
func (r *Recorder) IndexEntries(index string, n int) {
	if r == nil {
		return
	}
	r.indexEntries.WithLabelValues(index).Set(float64(n))
}

// Stage starts timing a pipeline stage; call the returned func when it ends.
func (r *Recorder) Stage(name string) func() {
	if r == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		r.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
