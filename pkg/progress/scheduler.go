package progress

import (
	"sync"
	"time"
)

// Scheduler delivers one callback on the next tick, like an animation frame.
type Scheduler interface {
	RequestTick(cb func(now time.Time))
}

// Drive keeps ticking t through s until the tracker leaves the running state.
func Drive(t *Tracker, s Scheduler) {
	var step func(now time.Time)
	step = func(now time.Time) {
		if t.Tick(now) {
			s.RequestTick(step)
		}
	}
	s.RequestTick(step)
}

// TimerScheduler fires callbacks on a fixed interval using the wall clock.
type TimerScheduler struct {
	Interval time.Duration
}

func NewTimerScheduler(interval time.Duration) *TimerScheduler {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &TimerScheduler{Interval: interval}
}

func (s *TimerScheduler) RequestTick(cb func(now time.Time)) {
	time.AfterFunc(s.Interval, func() { cb(time.Now()) })
}

// ManualScheduler queues callbacks until Fire is called.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []func(time.Time)
}

func (s *ManualScheduler) RequestTick(cb func(now time.Time)) {
	s.mu.Lock()
	s.pending = append(s.pending, cb)
	s.mu.Unlock()
}

// Fire runs every queued callback with now and returns how many ran.
func (s *ManualScheduler) Fire(now time.Time) int {
	s.mu.Lock()
	due := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, cb := range due {
		cb(now)
	}
	return len(due)
}

func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
