package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developingchet/execmeter/internal/meter"
	"github.com/developingchet/execmeter/internal/report"
	"github.com/developingchet/execmeter/internal/script"
)

func TestWorkerPool_BindsEachWorkerOnce(t *testing.T) {
	const workers = 6
	reg := meter.NewRegistry()
	bound := make(chan meter.ID, workers)

	results := make([]*report.Result, 0)
	p := newWorkerPool(context.Background(), poolConfig{
		workers: workers,
		buffer:  1,
		calls:   1,
		bind: func(ctx context.Context, i int) (context.Context, func()) {
			ctx, release := reg.Attach(ctx)
			id, _ := meter.IDFromContext(ctx)
			bound <- id
			return ctx, release
		},
	}, nil, results)
	p.stop()
	close(bound)

	seen := make(map[meter.ID]bool)
	for id := range bound {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, workers)
	assert.Equal(t, 0, reg.Len())
}

func TestWorkerPool_SubmitHonoursContext(t *testing.T) {
	prog, err := script.ParseString("x", "nop\n")
	require.NoError(t, err)

	block := make(chan struct{})
	results := make([]*report.Result, 3)
	arena := meter.NewArena(1)
	p := newWorkerPool(context.Background(), poolConfig{
		workers: 1,
		buffer:  1,
		calls:   1,
		bind: func(ctx context.Context, i int) (context.Context, func()) {
			<-block // hold the only worker so the buffer fills up
			return arena.Bind(ctx, i), func() {}
		},
	}, nil, results)

	require.True(t, p.submit(context.Background(), job{seq: 0, program: prog}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, p.submit(ctx, job{seq: 1, program: prog}))

	close(block)
	p.stop()
	require.NotNil(t, results[0])
	assert.Equal(t, int64(1), results[0].Lines)
	assert.Nil(t, results[1])
}
