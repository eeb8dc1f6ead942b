package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Analysis run metrics
	RunsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minerva_runs_started_total",
			Help: "Total number of analysis runs started",
		},
	)

	RunsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_runs_finished_total",
			Help: "Total number of analysis runs finished",
		},
		[]string{"status"}, // status: completed|failed|cancelled
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "minerva_run_duration_seconds",
			Help:    "End-to-end analysis run duration in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	// Phase metrics
	PhaseExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_phase_executions_total",
			Help: "Total number of phase executions",
		},
		[]string{"phase", "status"}, // status: completed|failed|skipped
	)

	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minerva_phase_duration_seconds",
			Help:    "Phase execution duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"phase"},
	)

	DebateRounds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minerva_debate_rounds",
			Help:    "Number of rounds a debate phase actually ran",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		},
		[]string{"phase"},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_agent_calls_total",
			Help: "Total number of agent calls",
		},
		[]string{"agent", "model", "status"}, // status: success|error
	)

	AgentCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_agent_cost_usd",
			Help: "Total AI cost in USD",
		},
		[]string{"agent", "model"},
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minerva_agent_latency_seconds",
			Help:    "Agent call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "model"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(RunsStarted)
	prometheus.MustRegister(RunsFinished)
	prometheus.MustRegister(RunDuration)

	prometheus.MustRegister(PhaseExecutions)
	prometheus.MustRegister(PhaseDuration)
	prometheus.MustRegister(DebateRounds)

	prometheus.MustRegister(AgentCalls)
	prometheus.MustRegister(AgentCost)
	prometheus.MustRegister(AgentLatency)
}

// Serve exposes the /metrics endpoint on addr. Blocks; run in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
