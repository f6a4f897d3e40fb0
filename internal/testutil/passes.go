package testutil

import "sync"

// PassRecorder is an engine.Sequencer that remembers every pass number it
// hands out, so a test can check how many times a planner published.
// Numbering starts at 1 and restarts after Reset.
type PassRecorder struct {
	mu     sync.Mutex
	passes []int64
}

// NewPassRecorder returns a recorder that has handed out no passes.
func NewPassRecorder() *PassRecorder {
	return &PassRecorder{}
}

// Next claims and records the next pass number.
func (r *PassRecorder) Next() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := int64(len(r.passes)) + 1
	r.passes = append(r.passes, next)
	return next
}

// Current returns the last pass handed out, 0 before the first publish.
func (r *PassRecorder) Current() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.passes))
}

// Published returns a copy of the recorded pass numbers.
func (r *PassRecorder) Published() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.passes...)
}

// Reset forgets every recorded pass.
func (r *PassRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes = nil
}
