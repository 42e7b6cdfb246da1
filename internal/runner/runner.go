// Package runner executes metered workloads on a fixed pool of workers. Each
// worker is one execution context with its own counter; results go to the
// configured report sinks.
package runner

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/developingchet/execmeter/internal/config"
	"github.com/developingchet/execmeter/internal/meter"
	"github.com/developingchet/execmeter/internal/monitor"
	"github.com/developingchet/execmeter/internal/report"
	"github.com/developingchet/execmeter/internal/script"
)

// Runner owns the counter store, the sinks and the optional metrics server.
type Runner struct {
	cfg      *config.Config
	sinks    []report.Sink
	registry *meter.Registry // nil unless CounterStore == registry
	arena    *meter.Arena    // nil unless CounterStore == arena
	httpSrv  *http.Server    // nil when MetricsAddr == ""
	serve    sync.Once
}

// New creates a Runner for cfg.
func New(cfg *config.Config, sinks []report.Sink) *Runner {
	r := &Runner{cfg: cfg, sinks: sinks}

	switch cfg.CounterStore {
	case config.StoreArena:
		r.arena = meter.NewArena(cfg.Workers)
	default:
		r.registry = meter.NewRegistry()
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.httpSrv = &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		}
	}
	return r
}

// Run executes programs on the worker pool and returns one result per
// program, in order. When ctx ends, programs not yet queued are reported as
// dropped and running ones stop with ctx's error.
func (r *Runner) Run(ctx context.Context, programs []*script.Program) ([]*report.Result, error) {
	if r.httpSrv != nil {
		r.serve.Do(func() {
			go func() {
				log.Info().Str("addr", r.cfg.MetricsAddr).Msg("metrics server listening")
				if err := r.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("metrics server error")
				}
			}()
		})
	}

	log.Info().
		Int("jobs", len(programs)).
		Int("workers", r.cfg.Workers).
		Str("counter_store", r.cfg.CounterStore).
		Int("calls_per_job", r.cfg.CallsPerJob).
		Str("job_timeout", r.cfg.JobTimeout.String()).
		Msg("run started")

	results := make([]*report.Result, len(programs))
	pool := newWorkerPool(ctx, r.poolConfig(), r.sinks, results)

	for i, p := range programs {
		if !pool.submit(ctx, job{seq: i, program: p}) {
			res := &report.Result{Job: p.Name, Worker: -1, Dropped: true, Err: ctx.Err()}
			results[i] = res
			deliver(ctx, r.sinks, res)
		}
	}
	pool.stop()

	log.Info().Int("jobs", len(programs)).Msg("run finished")
	return results, ctx.Err()
}

func (r *Runner) poolConfig() poolConfig {
	return poolConfig{
		workers:    r.cfg.Workers,
		buffer:     r.cfg.WorkerBuffer,
		calls:      r.cfg.CallsPerJob,
		jobTimeout: r.cfg.JobTimeout,
		limits: monitor.Limits{
			SubmissionLines: r.cfg.SubmissionLineLimit,
			TotalLines:      r.cfg.TotalLineLimit,
		},
		bind: r.bind,
	}
}

// bind turns worker i's goroutine into an execution context.
func (r *Runner) bind(ctx context.Context, i int) (context.Context, func()) {
	if r.arena != nil {
		return r.arena.Bind(ctx, i), func() {}
	}
	return r.registry.Attach(ctx)
}

// Close performs graceful shutdown.
func (r *Runner) Close() {
	if r.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.httpSrv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown error")
		}
	}
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Msg("sink close failed")
		}
	}
}

func deliver(ctx context.Context, sinks []report.Sink, res *report.Result) {
	for _, s := range sinks {
		if err := s.Report(ctx, res); err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Str("job", res.Job).Msg("report failed")
		}
	}
}
