package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbrain_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentbrain_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MemoryCorruptedEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbrain_memory_corrupted_entries_total",
			Help: "Stored memory entries skipped because they could not be decoded.",
		},
		[]string{"store"},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbrain_pipeline_runs_total",
			Help: "Pipeline runs by outcome (completed, denied, failed).",
		},
		[]string{"outcome"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentbrain_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbrain_tokens_total",
			Help: "Tokens consumed per pipeline stage and kind (prompt, completion).",
		},
		[]string{"stage", "kind"},
	)

	CostUSDTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbrain_cost_usd_total",
			Help: "Accumulated USD cost per pipeline stage.",
		},
		[]string{"stage"},
	)

	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbrain_intents_total",
			Help: "Classified intents.",
		},
		[]string{"intent"},
	)

	LedgerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbrain_ledger_events_total",
			Help: "Turn events handled by the ledger consumer by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		MemoryCorruptedEntries,
		PipelineRunsTotal,
		StageDuration,
		TokensTotal,
		CostUSDTotal,
		IntentsTotal,
		LedgerEventsTotal,
	)
}
