package meter

import (
	"context"
	"sync/atomic"
)

type bindingKey struct{}

// binding is either a direct counter (arena, tests) or a registry identity
// whose counter is created on first lookup. released is set once the
// registry identity has been given back.
type binding struct {
	c        *Counter
	reg      *Registry
	id       ID
	released *atomic.Bool
}

// WithCounter returns a copy of ctx that carries c.
func WithCounter(ctx context.Context, c *Counter) context.Context {
	return context.WithValue(ctx, bindingKey{}, binding{c: c})
}

// FromContext returns the counter of the execution context bound to ctx, or
// nil if ctx carries none or its execution context has been released.
func FromContext(ctx context.Context) *Counter {
	b, ok := ctx.Value(bindingKey{}).(binding)
	if !ok {
		return nil
	}
	if b.c != nil {
		return b.c
	}
	if b.released != nil && b.released.Load() {
		return nil
	}
	return b.reg.Get(b.id)
}

// IDFromContext returns the registry identity bound to ctx, if any.
func IDFromContext(ctx context.Context) (ID, bool) {
	b, ok := ctx.Value(bindingKey{}).(binding)
	if !ok || b.reg == nil {
		return 0, false
	}
	return b.id, true
}

// Record is FromContext(ctx).Record().
func Record(ctx context.Context) { FromContext(ctx).Record() }

// Read is FromContext(ctx).Read().
func Read(ctx context.Context) int64 { return FromContext(ctx).Read() }

// Reset is FromContext(ctx).Reset().
func Reset(ctx context.Context) { FromContext(ctx).Reset() }

// Enabled is FromContext(ctx).Enabled().
func Enabled(ctx context.Context) bool { return FromContext(ctx).Enabled() }

// SetEnabled is FromContext(ctx).SetEnabled(on).
func SetEnabled(ctx context.Context, on bool) { FromContext(ctx).SetEnabled(on) }
