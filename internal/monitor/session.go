// Package monitor turns a context's raw line counter into per-call
// checkpoints. A Session belongs to the same execution context as the
// counter it wraps and is not safe for concurrent use.
package monitor

import (
	"errors"
	"fmt"

	"github.com/developingchet/execmeter/internal/meter"
)

// ErrLineLimitExceeded is returned by Step once a configured limit is passed.
var ErrLineLimitExceeded = errors.New("line limit exceeded")

// Limits bounds the lines a session may record. Zero means unlimited.
type Limits struct {
	// SubmissionLines caps the lines of a single call.
	SubmissionLines int64
	// TotalLines caps the lines of all calls in the session together.
	TotalLines int64
}

// Checkpoint is taken at the end of every call.
type Checkpoint struct {
	Lines      int64 `json:"lines"`
	TotalLines int64 `json:"total_lines"`
}

// Results summarises a session.
type Results struct {
	Calls      int   `json:"calls"`
	TotalLines int64 `json:"total_lines"`
}

// Session measures a sequence of calls against one counter.
type Session struct {
	counter *meter.Counter
	limits  Limits
	total   int64
	calls   int
}

// NewSession wraps c. The counter is left untouched until BeginCall.
func NewSession(c *meter.Counter, limits Limits) *Session {
	return &Session{counter: c, limits: limits}
}

// BeginCall clears the tally and opens the gate.
func (s *Session) BeginCall() {
	s.counter.Reset()
	s.counter.SetEnabled(true)
}

// Step records one unit and reports whether a limit has now been passed.
// It is the hook instrumented code calls at every countable unit.
func (s *Session) Step() error {
	s.counter.Record()
	lines := s.counter.Read()
	if s.limits.SubmissionLines > 0 && lines > s.limits.SubmissionLines {
		return fmt.Errorf("%w: %d lines in call, limit %d", ErrLineLimitExceeded, lines, s.limits.SubmissionLines)
	}
	if s.limits.TotalLines > 0 && s.total+lines > s.limits.TotalLines {
		return fmt.Errorf("%w: %d lines in total, limit %d", ErrLineLimitExceeded, s.total+lines, s.limits.TotalLines)
	}
	return nil
}

// FinishCall closes the gate, folds the call's tally into the session total
// and clears the tally.
func (s *Session) FinishCall() Checkpoint {
	s.counter.SetEnabled(false)
	lines := s.counter.Read()
	s.counter.Reset()
	s.total += lines
	s.calls++
	return Checkpoint{Lines: lines, TotalLines: s.total}
}

// Result returns the totals over every finished call.
func (s *Session) Result() Results {
	return Results{Calls: s.calls, TotalLines: s.total}
}
