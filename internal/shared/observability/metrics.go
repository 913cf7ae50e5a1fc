package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shaker_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ModulesLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shaker_modules_loaded_total",
		Help: "Total number of modules read, parsed and analyzed.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shaker_graph_nodes",
		Help: "Number of modules in the most recent module graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shaker_graph_edges",
		Help: "Number of import edges in the most recent module graph.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shaker_phase_seconds",
		Help:    "Time spent in each build phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	StatementsIncluded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shaker_statements_included",
		Help: "Top-level statements marked reachable by the most recent build.",
	})

	StatementsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shaker_statements_total",
		Help: "Top-level statements seen by the most recent build.",
	})

	BuildFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaker_build_failures_total",
		Help: "Builds aborted by a fatal error, by error code.",
	}, []string{"code"})

	WarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaker_warnings_total",
		Help: "Non-fatal analysis warnings, by kind.",
	}, []string{"kind"})
)

// WriteTextfile dumps the default registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
