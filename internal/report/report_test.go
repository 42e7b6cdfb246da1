package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developingchet/execmeter/internal/metrics"
	"github.com/developingchet/execmeter/internal/monitor"
)

// Compile-time proof that the sinks satisfy Sink.
var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*MetricsSink)(nil)
)

func TestResult_Outcome(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want string
	}{
		{"ok", Result{}, OutcomeOK},
		{"dropped", Result{Dropped: true, Err: context.Canceled}, OutcomeDropped},
		{"limit", Result{Err: fmt.Errorf("a.meter:3: %w", monitor.ErrLineLimitExceeded)}, OutcomeLimit},
		{"error", Result{Err: errors.New("boom")}, OutcomeError},
		{"timeout", Result{Err: context.DeadlineExceeded}, OutcomeError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.r.Outcome())
		})
	}
}

func TestLogSink_Report(t *testing.T) {
	orig := log.Logger
	origLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = orig
		zerolog.SetGlobalLevel(origLevel)
	})
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	s := NewLogSink()
	require.NoError(t, s.Report(context.Background(), &Result{
		Job:      "a.meter",
		Worker:   2,
		Calls:    []monitor.Checkpoint{{Lines: 7, TotalLines: 7}},
		Lines:    7,
		Output:   []string{"hello"},
		Duration: time.Millisecond,
	}))

	out := buf.String()
	assert.Contains(t, out, `"job":"a.meter"`)
	assert.Contains(t, out, `"lines":7`)
	assert.Contains(t, out, `"outcome":"ok"`)
	assert.Contains(t, out, `"output":"hello"`)
	assert.Equal(t, "log", s.Name())
	assert.NoError(t, s.Close())
}

func TestLogSink_ReportError(t *testing.T) {
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	require.NoError(t, NewLogSink().Report(context.Background(), &Result{
		Job: "b.meter",
		Err: fmt.Errorf("b.meter:1: %w", monitor.ErrLineLimitExceeded),
	}))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"outcome":"limit"`)
}

func TestMetricsSink_Report(t *testing.T) {
	s := NewMetricsSink()
	okBefore := testutil.ToFloat64(metrics.Jobs.WithLabelValues(OutcomeOK))
	droppedBefore := testutil.ToFloat64(metrics.Jobs.WithLabelValues(OutcomeDropped))

	require.NoError(t, s.Report(context.Background(), &Result{Lines: 12}))
	require.NoError(t, s.Report(context.Background(), &Result{Dropped: true}))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.Jobs.WithLabelValues(OutcomeOK)))
	assert.Equal(t, droppedBefore+1, testutil.ToFloat64(metrics.Jobs.WithLabelValues(OutcomeDropped)))
	assert.Equal(t, "metrics", s.Name())
	assert.NoError(t, s.Close())
}
