package engine

import "sync/atomic"

// Sequencer numbers published passes. Numbers are strictly increasing per
// planner and 0 means nothing has been published.
type Sequencer interface {
	// Next claims the number of the pass being published.
	Next() int64
	// Current returns the number of the last published pass.
	Current() int64
}

// Clock is the default Sequencer, a lock-free pass counter.
type Clock struct {
	pass atomic.Int64
}

// NewClock returns a clock whose first published pass is 1.
func NewClock() *Clock {
	return &Clock{}
}

// ResumeClock returns a clock that continues after lastPass, for a planner
// taking over a plan another planner already published.
func ResumeClock(lastPass int64) *Clock {
	c := &Clock{}
	c.pass.Store(max(lastPass, 0))
	return c
}

func (c *Clock) Next() int64 {
	return c.pass.Add(1)
}

func (c *Clock) Current() int64 {
	return c.pass.Load()
}
