package store

import "sync/atomic"

// SeqClock is the monotonic logical clock stamping journal entries.
//
// All journal rows carry a strictly increasing seq from this clock, so
// the operation history has a deterministic total order independent of
// wall-clock time.
//
// Thread-safety: safe for concurrent use (atomic operations), though the
// single-connection store serializes writers anyway.
type SeqClock struct {
	seq atomic.Int64
}

// NewSeqClock creates a clock starting at 0.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// NewSeqClockAt creates a clock resuming from a specific sequence number.
// Used when reopening a database to continue after the last journal row.
func NewSeqClockAt(start int64) *SeqClock {
	c := &SeqClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *SeqClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *SeqClock) Current() int64 {
	return c.seq.Load()
}
