package meter

import (
	"context"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/developingchet/execmeter/internal/metrics"
)

// ID identifies one execution context within a Registry.
type ID uint64

// Registry hands out one Counter per execution context identity. It is safe
// for concurrent use; the Counters it returns are not.
type Registry struct {
	states *xsync.MapOf[ID, *Counter]
	next   atomic.Uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: xsync.NewMapOf[ID, *Counter]()}
}

// NewID returns an identity that no other caller of this registry receives.
func (r *Registry) NewID() ID {
	return ID(r.next.Add(1))
}

// Get returns the counter for id, creating it on first use. Concurrent first
// calls for the same id all receive the same, single Counter.
func (r *Registry) Get(id ID) *Counter {
	c, _ := r.states.LoadOrCompute(id, func() *Counter {
		metrics.ContextsCreated.Inc()
		metrics.ContextsLive.Inc()
		return &Counter{}
	})
	return c
}

// Release drops the state held for id. A later Get for the same id starts
// from a fresh Counter.
func (r *Registry) Release(id ID) {
	if _, ok := r.states.LoadAndDelete(id); ok {
		metrics.ContextsLive.Dec()
	}
}

// Len returns the number of states currently held.
func (r *Registry) Len() int {
	return r.states.Size()
}

// Attach starts a new execution context: it binds a fresh identity to ctx and
// returns a release func to call when the context ends. The Counter itself is
// created the first time FromContext is called on the returned context. After
// release, FromContext on that context returns nil.
func (r *Registry) Attach(ctx context.Context) (context.Context, func()) {
	id := r.NewID()
	released := new(atomic.Bool)
	b := binding{reg: r, id: id, released: released}
	return context.WithValue(ctx, bindingKey{}, b), func() {
		released.Store(true)
		r.Release(id)
	}
}
