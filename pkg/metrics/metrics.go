package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Semaphore metrics (C1)
	SemaphoreAvailableBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "judged_semaphore_available_bytes",
			Help: "Bytes currently available in the memory admission semaphore",
		},
	)

	SemaphoreWaitersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "judged_semaphore_waiters",
			Help: "Number of requests currently queued on the memory semaphore",
		},
	)

	SemaphoreRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judged_semaphore_rejected_total",
			Help: "Total semaphore acquisitions rejected, by reason",
		},
		[]string{"reason"},
	)

	// Sandbox lifecycle metrics (C2-C5)
	SandboxesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "judged_sandbox_active",
			Help: "Number of sandboxes currently mounted and running",
		},
	)

	SandboxSetupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "judged_sandbox_setup_duration_seconds",
			Help:    "Time to mount a rootfs and create its cgroup",
			Buckets: prometheus.DefBuckets,
		},
	)

	SandboxRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judged_sandbox_run_duration_seconds",
			Help:    "Wall time of one jailed process run, by exhaustion reason",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"reason"},
	)

	SandboxExhaustedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judged_sandbox_exhausted_total",
			Help: "Total sandbox runs terminated by the resource monitor, by reason",
		},
		[]string{"reason"},
	)

	SandboxOOMKillsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "judged_sandbox_oom_kills_total",
			Help: "Total sandbox runs ended for memory exhaustion (OOM kill or over-budget reading)",
		},
	)

	// Pipeline metrics (C7)
	PipelineCompileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judged_pipeline_compile_duration_seconds",
			Help:    "Compile-stage duration, by language",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"language_id"},
	)

	PipelineCompileFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judged_pipeline_compile_failures_total",
			Help: "Total compile stage failures, by language",
		},
		[]string{"language_id"},
	)

	PipelineCasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judged_pipeline_cases_total",
			Help: "Total test cases judged, by verdict code",
		},
		[]string{"verdict"},
	)

	PipelineCaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judged_pipeline_case_duration_seconds",
			Help:    "Per-case run+assert duration, by language",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"language_id"},
	)

	// RPC metrics (C9)
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judged_rpc_requests_total",
			Help: "Total RPC requests by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judged_rpc_request_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	RPCStreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "judged_rpc_streams_active",
			Help: "Number of Judge RPC streams currently open",
		},
	)

	// Registry metrics (C8)
	PluginsLoadedTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "judged_plugins_loaded",
			Help: "Number of language plugins loaded from the plugin directory",
		},
	)
)

func init() {
	prometheus.MustRegister(SemaphoreAvailableBytes)
	prometheus.MustRegister(SemaphoreWaitersTotal)
	prometheus.MustRegister(SemaphoreRejectedTotal)

	prometheus.MustRegister(SandboxesActive)
	prometheus.MustRegister(SandboxSetupDuration)
	prometheus.MustRegister(SandboxRunDuration)
	prometheus.MustRegister(SandboxExhaustedTotal)
	prometheus.MustRegister(SandboxOOMKillsTotal)

	prometheus.MustRegister(PipelineCompileDuration)
	prometheus.MustRegister(PipelineCompileFailuresTotal)
	prometheus.MustRegister(PipelineCasesTotal)
	prometheus.MustRegister(PipelineCaseDuration)

	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
	prometheus.MustRegister(RPCStreamsActive)

	prometheus.MustRegister(PluginsLoadedTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
