package report

import (
	"context"

	"github.com/developingchet/execmeter/internal/metrics"
)

// MetricsSink counts outcomes and records each job's line count.
type MetricsSink struct{}

// NewMetricsSink returns a MetricsSink.
func NewMetricsSink() *MetricsSink { return &MetricsSink{} }

func (s *MetricsSink) Name() string { return "metrics" }

func (s *MetricsSink) Report(_ context.Context, r *Result) error {
	metrics.Jobs.WithLabelValues(r.Outcome()).Inc()
	if !r.Dropped {
		metrics.JobUnits.Observe(float64(r.Lines))
	}
	return nil
}

func (s *MetricsSink) Close() error { return nil }
