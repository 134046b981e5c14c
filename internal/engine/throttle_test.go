package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottlerTrailingEdge(t *testing.T) {
	sched := &ManualScheduler{}
	var got []int
	th := NewThrottler(sched, func(v int) { got = append(got, v) })

	for i := 1; i <= 5; i++ {
		th.Request(i)
	}
	assert.Equal(t, 1, sched.Pending())
	assert.Empty(t, got)

	assert.Equal(t, 1, sched.Tick())
	assert.Equal(t, []int{5}, got)

	// Nothing pending: no further frames.
	assert.Equal(t, 0, sched.Tick())

	th.Request(6)
	sched.Tick()
	assert.Equal(t, []int{5, 6}, got)
}

func TestThrottlerCancel(t *testing.T) {
	sched := &ManualScheduler{}
	calls := 0
	th := NewThrottler(sched, func(int) { calls++ })

	th.Request(1)
	th.Cancel()
	sched.Tick()
	assert.Zero(t, calls)

	// The throttle re-arms after a cancelled frame.
	th.Request(2)
	assert.Equal(t, 1, sched.Pending())
	sched.Tick()
	assert.Equal(t, 1, calls)
}

func TestThrottlerRequestDuringFrame(t *testing.T) {
	sched := &ManualScheduler{}
	var got []int
	var th *Throttler[int]
	th = NewThrottler(sched, func(v int) {
		got = append(got, v)
		if v == 1 {
			th.Request(2)
		}
	})

	th.Request(1)
	sched.Tick()
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 1, sched.Pending())
	sched.Tick()
	assert.Equal(t, []int{1, 2}, got)
}

func TestIntervalScheduler(t *testing.T) {
	s := NewIntervalScheduler(100)
	assert.Equal(t, 10*time.Millisecond, s.Interval())
	assert.Equal(t, time.Second/60, NewIntervalScheduler(0).Interval())

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	th := NewThrottler[int](s, func(v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
		close(done)
	})
	th.Request(1)
	th.Request(2)

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "frame never fired")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2}, got)
}
