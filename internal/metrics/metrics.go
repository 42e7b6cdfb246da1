// Package metrics defines package-level Prometheus metric variables for
// execmeter. Call Register() once at startup to expose them on the default
// registry, or RegisterWith() to use an isolated registry in tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ContextsCreated counts counter states created lazily by a registry.
	ContextsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "execmeter_contexts_created_total",
		Help: "Execution-context counter states created.",
	})

	// ContextsLive is the number of counter states a registry currently holds.
	ContextsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "execmeter_contexts_live",
		Help: "Execution-context counter states currently held.",
	})

	// Jobs counts finished or dropped jobs, labelled by outcome.
	// Valid outcomes: ok, error, limit, dropped.
	Jobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "execmeter_jobs_total",
		Help: "Jobs by outcome (ok|error|limit|dropped).",
	}, []string{"outcome"})

	// JobsActive is a gauge of jobs currently running in the worker pool.
	JobsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "execmeter_jobs_active",
		Help: "Jobs currently running.",
	})

	// JobUnits is the distribution of units recorded by a single job.
	JobUnits = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "execmeter_job_units",
		Help:    "Units of work recorded per job.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})
)

// Register registers all metrics with prometheus.DefaultRegisterer.
// Call once at process startup.
func Register() {
	RegisterWith(prometheus.DefaultRegisterer)
}

// RegisterWith registers all metrics with the given registerer.
// Use an isolated prometheus.NewRegistry() in tests to avoid conflicts.
func RegisterWith(reg prometheus.Registerer) {
	reg.MustRegister(
		ContextsCreated,
		ContextsLive,
		Jobs,
		JobsActive,
		JobUnits,
	)
}
