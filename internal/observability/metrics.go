package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the indicator
// store and score engine.
type Metrics struct {
	TableLoads    *prometheus.CounterVec // labels: medium, outcome={success,schema_error,parse_error,unavailable}
	RowsDropped   prometheus.Counter
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss}
	Mutations     *prometheus.CounterVec // labels: op={upsert,delete}, outcome={success,not_found,error}
	LoadDuration  prometheus.Histogram
	ScoreRequests prometheus.Counter
	CSVExports    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TableLoads,
		m.RowsDropped,
		m.CacheLookups,
		m.Mutations,
		m.LoadDuration,
		m.ScoreRequests,
		m.CSVExports,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TableLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icedash",
			Name:      "table_loads_total",
			Help:      "Table loads from the backing medium by outcome.",
		}, []string{"medium", "outcome"}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icedash",
			Name:      "rows_dropped_total",
			Help:      "Source rows dropped during normalization.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icedash",
			Name:      "cache_lookups_total",
			Help:      "Load cache lookups by result.",
		}, []string{"result"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icedash",
			Name:      "mutations_total",
			Help:      "Upsert and delete operations by outcome.",
		}, []string{"op", "outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "icedash",
			Name:      "load_duration_seconds",
			Help:      "Duration of a full load from the backing medium.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		ScoreRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icedash",
			Name:      "score_requests_total",
			Help:      "Score computations served.",
		}),
		CSVExports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icedash",
			Name:      "csv_exports_total",
			Help:      "CSV downloads produced.",
		}),
	}
}
