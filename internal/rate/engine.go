package rate

import "time"

// Engine turns successive counter snapshots into per-second rates. It
// owns the previous snapshot per entity and the wall clock time of the
// last successful computation. One engine instance serves one domain
// and is only ever touched by the polling goroutine, so it carries no
// locking.
//
// C is the raw counter record, R the derived rate record.
type Engine[C, R any] struct {
	// Now is the clock; tests swap it for a fake.
	Now func() time.Time

	key    func(C) string
	first  func(C) R
	derive func(cur, prev C, elapsedSec float64) R

	previous map[string]C
	last     time.Time
}

// NewEngine builds an engine from three domain hooks: key names an
// entity, first produces the zero-rate record for an entity seen for
// the first time, and derive computes rates from two readings and the
// elapsed seconds between them.
func NewEngine[C, R any](key func(C) string, first func(C) R, derive func(cur, prev C, elapsedSec float64) R) *Engine[C, R] {
	return &Engine[C, R]{
		Now:      time.Now,
		key:      key,
		first:    first,
		derive:   derive,
		previous: make(map[string]C),
	}
}

// Compute derives one rate record per current entity. Entities absent
// from the previous cycle get zero rates; entities absent this cycle
// are dropped from state. When the clock has not advanced (or moved
// backward) it returns nil and leaves state untouched, so rapid
// re-entrant calls and clock anomalies cannot divide by zero or
// corrupt the baseline.
func (e *Engine[C, R]) Compute(current []C) map[string]R {
	now := e.Now()
	elapsed := now.Sub(e.last).Seconds()
	if elapsed <= 0 {
		return nil
	}

	out := make(map[string]R, len(current))
	next := make(map[string]C, len(current))
	for _, cur := range current {
		name := e.key(cur)
		if prev, ok := e.previous[name]; ok {
			out[name] = e.derive(cur, prev, elapsed)
		} else {
			out[name] = e.first(cur)
		}
		next[name] = cur
	}

	e.previous = next
	e.last = now
	return out
}

// delta is the signed difference of two cumulative counters. Counter
// resets and device replacement make it negative; that propagates to
// the derived rate rather than being clamped here.
func delta(cur, prev uint64) float64 {
	return float64(int64(cur) - int64(prev))
}
