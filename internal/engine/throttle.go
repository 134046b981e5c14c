package engine

import (
	"sync"
	"time"
)

// Scheduler runs a callback at the next display frame boundary.
type Scheduler interface {
	Schedule(fn func())
}

// Throttler coalesces calls to fn to at most one per frame. Calls arriving
// before the frame fires replace the pending argument, so the frame runs
// with the most recent one. Earlier arguments are dropped, not queued.
type Throttler[T any] struct {
	sched Scheduler
	fn    func(T)

	mu        sync.Mutex
	pending   T
	hasArg    bool
	scheduled bool
}

func NewThrottler[T any](sched Scheduler, fn func(T)) *Throttler[T] {
	return &Throttler[T]{sched: sched, fn: fn}
}

// Request stores arg as the pending call and arranges a frame if none is due.
func (t *Throttler[T]) Request(arg T) {
	t.mu.Lock()
	t.pending = arg
	t.hasArg = true
	if t.scheduled {
		t.mu.Unlock()
		return
	}
	t.scheduled = true
	t.mu.Unlock()

	t.sched.Schedule(t.fire)
}

// Cancel drops the pending call. A frame already scheduled fires as a no-op.
func (t *Throttler[T]) Cancel() {
	t.mu.Lock()
	var zero T
	t.pending = zero
	t.hasArg = false
	t.mu.Unlock()
}

func (t *Throttler[T]) fire() {
	t.mu.Lock()
	t.scheduled = false
	if !t.hasArg {
		t.mu.Unlock()
		return
	}
	arg := t.pending
	var zero T
	t.pending = zero
	t.hasArg = false
	t.mu.Unlock()

	t.fn(arg)
}

// ManualScheduler queues callbacks until Tick is called. It stands in for a
// display refresh in tests.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (s *ManualScheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
}

// Pending returns the number of queued callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Tick runs every callback queued before the call and returns how many ran.
func (s *ManualScheduler) Tick() int {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
	return len(queue)
}

// IntervalScheduler fires callbacks on fixed frame boundaries counted from
// its creation, emulating a display refreshing at a given rate.
type IntervalScheduler struct {
	interval time.Duration
	start    time.Time
}

// NewIntervalScheduler creates a scheduler for refreshRate frames per second.
func NewIntervalScheduler(refreshRate int) *IntervalScheduler {
	if refreshRate <= 0 {
		refreshRate = 60
	}
	return &IntervalScheduler{
		interval: time.Second / time.Duration(refreshRate),
		start:    time.Now(),
	}
}

func (s *IntervalScheduler) Interval() time.Duration {
	return s.interval
}

func (s *IntervalScheduler) Schedule(fn func()) {
	elapsed := time.Since(s.start)
	wait := s.interval - elapsed%s.interval
	time.AfterFunc(wait, fn)
}
