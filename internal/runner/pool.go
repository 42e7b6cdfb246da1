package runner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/developingchet/execmeter/internal/meter"
	"github.com/developingchet/execmeter/internal/metrics"
	"github.com/developingchet/execmeter/internal/monitor"
	"github.com/developingchet/execmeter/internal/report"
	"github.com/developingchet/execmeter/internal/script"
)

type job struct {
	seq     int
	program *script.Program
}

type poolConfig struct {
	workers    int
	buffer     int
	calls      int
	jobTimeout time.Duration
	limits     monitor.Limits
	bind       func(ctx context.Context, worker int) (context.Context, func())
}

type workerPool struct {
	cfg     poolConfig
	jobCh   chan job
	wg      sync.WaitGroup
	sinks   []report.Sink
	results []*report.Result // slot seq is written by exactly one worker
}

// newWorkerPool starts cfg.workers goroutines reading from a channel buffered
// to cfg.buffer. Each goroutine binds its own execution context before taking
// jobs and releases it on exit.
func newWorkerPool(ctx context.Context, cfg poolConfig, sinks []report.Sink, results []*report.Result) *workerPool {
	p := &workerPool{
		cfg:     cfg,
		jobCh:   make(chan job, cfg.buffer),
		sinks:   sinks,
		results: results,
	}
	for i := 0; i < cfg.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	return p
}

// submit enqueues a job, waiting for buffer space. Returns false if ctx ended
// first and the job was not queued.
func (p *workerPool) submit(ctx context.Context, j job) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case p.jobCh <- j:
		return true
	case <-ctx.Done():
		return false
	}
}

// stop closes the job channel and waits for all workers to finish draining it.
func (p *workerPool) stop() {
	close(p.jobCh)
	p.wg.Wait()
}

func (p *workerPool) runWorker(ctx context.Context, worker int) {
	defer p.wg.Done()
	ctx, release := p.cfg.bind(ctx, worker)
	defer release()
	for j := range p.jobCh {
		p.processJob(ctx, worker, j)
	}
}

func (p *workerPool) processJob(ctx context.Context, worker int, j job) {
	if err := ctx.Err(); err != nil {
		res := &report.Result{Job: j.program.Name, Worker: worker, Dropped: true, Err: err}
		p.results[j.seq] = res
		deliver(ctx, p.sinks, res)
		return
	}

	metrics.JobsActive.Inc()
	defer metrics.JobsActive.Dec()

	jobCtx := ctx
	if p.cfg.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, p.cfg.jobTimeout)
		defer cancel()
	}

	ev := log.Debug().Str("job", j.program.Name).Int("worker", worker)
	if id, ok := meter.IDFromContext(ctx); ok {
		ev = ev.Uint64("context", uint64(id))
	}
	ev.Msg("job started")

	session := monitor.NewSession(meter.FromContext(ctx), p.cfg.limits)
	res := &report.Result{Job: j.program.Name, Worker: worker}
	start := time.Now()
	for call := 0; call < p.cfg.calls; call++ {
		session.BeginCall()
		out, err := j.program.Run(jobCtx, session.Step)
		res.Calls = append(res.Calls, session.FinishCall())
		res.Output = append(res.Output, out...)
		if err != nil {
			res.Err = err
			break
		}
	}
	res.Lines = session.Result().TotalLines
	res.Duration = time.Since(start)

	p.results[j.seq] = res
	deliver(ctx, p.sinks, res)
}
