package harness

import "sync/atomic"

// Clock is a monotonic logical clock for trace ordering.
//
// Every trace event is stamped with a strictly increasing seq from this
// clock, so identical scenarios produce identical traces regardless of
// wall-clock timing.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number, or 0 if none.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
