package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all policy metrics
type Metrics struct {
	// Evaluation metrics
	Evaluations *prometheus.CounterVec

	// Generation metrics
	Generations     prometheus.Counter
	GeneratedLength prometheus.Histogram

	// Hashing metrics
	HashOperations *prometheus.CounterVec

	// Denylist metrics
	DenylistEntries     prometheus.Gauge
	DenylistLoads       *prometheus.CounterVec
	DenylistLoadLatency *prometheus.HistogramVec

	// Audit metrics
	AuditDuration prometheus.Histogram
}

// New creates all metrics and registers them with reg. A nil reg leaves
// them unregistered.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of password evaluations by normalized score and validity",
		}, []string{"score", "valid"}),

		Generations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generated passwords",
		}),
		GeneratedLength: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generated_length",
			Help:      "Length of generated passwords",
			Buckets:   []float64{4, 8, 12, 16, 24, 32, 64, 128},
		}),

		HashOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hash_operations_total",
			Help:      "Total number of hash attempts by status",
		}, []string{"status"}),

		DenylistEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "denylist_extra_entries",
			Help:      "Number of denylist entries loaded on top of the built-in list",
		}),
		DenylistLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "denylist_loads_total",
			Help:      "Total number of denylist source loads",
		}, []string{"source", "status"}),
		DenylistLoadLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "denylist_load_duration_seconds",
			Help:      "Duration of denylist source loads",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"source"}),

		AuditDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Time spent auditing a password list",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveEvaluation records one evaluation outcome.
func (m *Metrics) ObserveEvaluation(score int, valid bool) {
	m.Evaluations.WithLabelValues(strconv.Itoa(score), strconv.FormatBool(valid)).Inc()
}

// WriteTextfile dumps everything g gathers in the node-exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
