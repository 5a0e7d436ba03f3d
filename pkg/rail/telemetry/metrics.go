package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ib-77/ringrail/pkg/rail/core"
)

const namespace = "ringrail"

// Metrics records pipeline events as prometheus metrics, labelled by stage.
// It implements core.Observer.
type Metrics struct {
	submitted *prometheus.CounterVec
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	discarded *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	pending   *prometheus.GaugeVec
	capacity  *prometheus.GaugeVec
}

var _ core.Observer = (*Metrics)(nil)

// NewMetrics registers the pipeline metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	stage := []string{"stage"}

	return &Metrics{
		submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_submitted_total",
			Help:      "Items published into a stage",
		}, stage),
		processed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_processed_total",
			Help:      "Items a stage processed without error",
		}, stage),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_failed_total",
			Help:      "Items whose processing failed or panicked",
		}, stage),
		discarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_discarded_total",
			Help:      "Outputs dropped at the tail or after the downstream stage closed",
		}, stage),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Time spent processing one item",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12),
		}, stage),
		pending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_pending",
			Help:      "Items published but not yet settled",
		}, stage),
		capacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ring_capacity",
			Help:      "Ring size of a stage",
		}, stage),
	}
}

func (m *Metrics) Submitted(stage string) {
	m.submitted.WithLabelValues(stage).Inc()
}

func (m *Metrics) Processed(stage string, _ int, took time.Duration) {
	m.processed.WithLabelValues(stage).Inc()
	m.duration.WithLabelValues(stage).Observe(took.Seconds())
}

func (m *Metrics) Failed(stage string, _ int, _ error) {
	m.failed.WithLabelValues(stage).Inc()
}

func (m *Metrics) Discarded(stage string) {
	m.discarded.WithLabelValues(stage).Inc()
}

func (m *Metrics) Pending(stage string, pending int64) {
	m.pending.WithLabelValues(stage).Set(float64(pending))
}

func (m *Metrics) Capacity(stage string, capacity int) {
	m.capacity.WithLabelValues(stage).Set(float64(capacity))
}
