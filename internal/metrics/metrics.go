package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_uploads_total",
			Help: "Total number of upload requests by outcome",
		},
		[]string{"status"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_analyses_total",
			Help: "Total number of analysis requests by outcome",
		},
		[]string{"status"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docanalyzer_analysis_duration_seconds",
			Help:    "End-to-end analysis duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	ChunksPerDocument = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docanalyzer_chunks_per_document",
			Help:    "Number of chunks produced per analyzed document",
			Buckets: []float64{1, 2, 3, 5, 8, 12, 15},
		},
	)

	ChunkFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docanalyzer_chunk_failures_total",
			Help: "Map-phase chunk analyses replaced by the empty structure",
		},
	)

	ParseOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_parse_outcomes_total",
			Help: "Result parsing outcomes (direct, repaired, fallback)",
		},
		[]string{"outcome"},
	)

	Extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_extractions_total",
			Help: "Text extractions by document kind and strategy used",
		},
		[]string{"kind", "mode"},
	)

	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_llm_requests_total",
			Help: "Completion requests by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	LLMDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docanalyzer_llm_request_duration_seconds",
			Help:    "Completion request latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			UploadsTotal,
			AnalysesTotal,
			AnalysisDuration,
			ChunksPerDocument,
			ChunkFailures,
			ParseOutcomes,
			Extractions,
			LLMRequests,
			LLMDuration,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
