package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_FirstPassIsOne(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current(), "nothing published yet")
	assert.Equal(t, int64(1), c.Next())
}

func TestResumeClock(t *testing.T) {
	tests := []struct {
		name     string
		lastPass int64
		wantNext int64
	}{
		{"continues after last pass", 41, 42},
		{"zero", 0, 1},
		{"negative treated as zero", -5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ResumeClock(tt.lastPass)
			assert.Equal(t, tt.wantNext, c.Next())
			assert.Equal(t, tt.wantNext, c.Current(), "Current does not advance the clock")
		})
	}
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	c := NewClock()
	const workers, calls = 16, 200

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				pass := c.Next()
				mu.Lock()
				seen[pass] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), c.Current())
}

func TestPlanner_ResumedClockNumbersPasses(t *testing.T) {
	p := NewPlanner(nil, WithClock(ResumeClock(7)))
	assert.Equal(t, int64(7), p.Snapshot().Pass)
}
