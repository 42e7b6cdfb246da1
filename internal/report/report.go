// Package report delivers finished job results to their consumers.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/developingchet/execmeter/internal/monitor"
)

// Outcomes, also used as the metrics label.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeLimit   = "limit"
	OutcomeDropped = "dropped"
)

// Result is the measurement of one job.
type Result struct {
	Job      string
	Worker   int
	Calls    []monitor.Checkpoint
	Lines    int64 // all calls together
	Output   []string
	Duration time.Duration
	Dropped  bool // never started
	Err      error
}

// Outcome classifies the result.
func (r *Result) Outcome() string {
	switch {
	case r.Dropped:
		return OutcomeDropped
	case r.Err == nil:
		return OutcomeOK
	case errors.Is(r.Err, monitor.ErrLineLimitExceeded):
		return OutcomeLimit
	default:
		return OutcomeError
	}
}

// Sink receives finished results. Workers report concurrently, so
// implementations must be safe for concurrent use.
type Sink interface {
	// Name returns the sink identifier for logging.
	Name() string

	// Report hands over a single result.
	Report(ctx context.Context, r *Result) error

	// Close performs graceful shutdown.
	Close() error
}
