// Package meter counts units of work per execution context.
//
// Every execution context (one goroutine of control running instrumented
// code) owns exactly one Counter: a tally and an on/off gate. Instrumented
// code calls Record at each countable unit; the tally only moves while the
// gate is on. Counters are never shared between contexts, so none of the
// operations take locks.
//
// A context gets its Counter from a Registry (keyed by context identity,
// created lazily on first touch) or from an Arena slot when the set of
// workers is fixed. Either way the Counter travels with the context.Context
// and is resolved with FromContext.
package meter

// Counter is the tally and gate of one execution context. It must only be
// used by the context that owns it.
//
// A nil *Counter is valid: it reads as zero and its gate is always off.
type Counter struct {
	tally int64
	gate  bool
}

// Record adds one unit to the tally if the gate is on.
func (c *Counter) Record() {
	if c == nil || !c.gate {
		return
	}
	c.tally++
}

// Read returns the current tally.
func (c *Counter) Read() int64 {
	if c == nil {
		return 0
	}
	return c.tally
}

// Reset zeroes the tally. The gate is left as it is.
func (c *Counter) Reset() {
	if c == nil {
		return
	}
	c.tally = 0
}

// Enabled reports whether Record currently has any effect.
func (c *Counter) Enabled() bool {
	return c != nil && c.gate
}

// SetEnabled sets the gate. The tally is preserved either way. The gate is a
// single bit: enabling twice and then disabling once leaves it off.
func (c *Counter) SetEnabled(on bool) {
	if c == nil {
		return
	}
	c.gate = on
}

// Pause turns the gate off and returns a function that puts it back to
// whatever it was before the call.
func (c *Counter) Pause() (restore func()) {
	prev := c.Enabled()
	c.SetEnabled(false)
	return func() { c.SetEnabled(prev) }
}
