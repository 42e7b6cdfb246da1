package meter

import "context"

// slot pads a Counter out to a cache line so neighbouring workers don't
// write to the same line.
type slot struct {
	Counter
	_ [48]byte
}

// Arena is a fixed set of counters, one per worker index. It suits pools
// whose workers are known up front; slot i belongs to worker i alone.
type Arena struct {
	slots []slot
}

// NewArena allocates n fresh counters.
func NewArena(n int) *Arena {
	return &Arena{slots: make([]slot, n)}
}

// Len returns the number of slots.
func (a *Arena) Len() int { return len(a.slots) }

// Slot returns worker i's counter. It panics if i is out of range.
func (a *Arena) Slot(i int) *Counter {
	return &a.slots[i].Counter
}

// Bind attaches worker i's counter to ctx.
func (a *Arena) Bind(ctx context.Context, i int) context.Context {
	return WithCounter(ctx, a.Slot(i))
}
