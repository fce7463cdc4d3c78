package engine

import "sync/atomic"

// Clock is a monotonic logical clock for execution ordering.
//
// Every execution record is stamped with a strictly increasing seq from
// this clock, so replaying the same plan yields the same stamps.
//
// Clock is safe for concurrent use, although the processor only calls it
// from a single goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to continue numbering after records already persisted for a run.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
