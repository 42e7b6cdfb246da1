package report

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogSink writes one structured log line per result.
type LogSink struct{}

// NewLogSink returns a LogSink.
func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Report(_ context.Context, r *Result) error {
	ev := log.Info()
	if r.Err != nil {
		ev = log.Warn().Err(r.Err)
	}
	ev.Str("job", r.Job).
		Int("worker", r.Worker).
		Int("calls", len(r.Calls)).
		Int64("lines", r.Lines).
		Dur("duration", r.Duration).
		Str("outcome", r.Outcome()).
		Msg("job finished")

	for _, line := range r.Output {
		log.Debug().Str("job", r.Job).Str("output", line).Msg("job output")
	}
	return nil
}

func (s *LogSink) Close() error { return nil }
