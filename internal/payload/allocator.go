package payload

import "sync/atomic"

// Allocator issues unique, strictly increasing payload IDs.
//
// It is the only state shared across all buckets. The zero value is
// ready to use; pass an Allocator explicitly to anything that mints IDs
// so independent engines never share process-global state.
type Allocator struct {
	counter atomic.Uint64
}

// NewAllocator creates an allocator starting at zero. The first Next
// returns 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next atomically issues the next payload ID. Safe under arbitrary
// concurrent callers.
func (a *Allocator) Next() uint64 {
	return a.counter.Add(1)
}

// Current returns the last issued ID, or the reconciled floor if no ID
// has been issued since.
func (a *Allocator) Current() uint64 {
	return a.counter.Load()
}

// Reconcile raises the counter to at least highWaterMark so the next
// issued ID is strictly greater than every ID persisted by a previous
// process lifetime. It never lowers the counter.
//
// Must complete before the first Next of a restarted process; the
// engine's startup barrier enforces this.
func (a *Allocator) Reconcile(highWaterMark uint64) {
	for {
		current := a.counter.Load()
		if current >= highWaterMark {
			return
		}
		if a.counter.CompareAndSwap(current, highWaterMark) {
			return
		}
	}
}
