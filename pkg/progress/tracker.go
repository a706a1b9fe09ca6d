package progress

import (
	"math"
	"sync"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	// StateFailed means the commit broke mid-flight; the percentage is unknown.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Snapshot struct {
	State   State
	Percent float64
}

// Known reports whether Percent carries a meaningful value.
func (s Snapshot) Known() bool {
	return s.State == StateRunning || s.State == StateCompleted
}

// Tracker holds the displayed value of one commit. The value never moves
// backward and reaches 100 only through Complete.
type Tracker struct {
	mu        sync.Mutex
	ramp      RampState
	state     State
	percent   float64
	listeners []func(Snapshot)
}

func NewTracker(rampDuration time.Duration) *Tracker {
	return &Tracker{ramp: RampState{Duration: rampDuration, Ceiling: RampCeiling}}
}

// Subscribe registers fn for every change of the displayed value.
func (t *Tracker) Subscribe(fn func(Snapshot)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

func (t *Tracker) Start(now time.Time) {
	t.update(func() bool {
		t.ramp.Start = now
		t.state = StateRunning
		t.percent = 0
		return true
	})
}

// Upload feeds a transport progress event.
func (t *Tracker) Upload(sent, total int64) {
	t.update(func() bool {
		return t.raise(UploadPercent(sent, total))
	})
}

// Tick advances the ramp. It reports whether more ticks are wanted.
func (t *Tracker) Tick(now time.Time) bool {
	running := true
	t.update(func() bool {
		if t.state != StateRunning {
			running = false
			return false
		}
		return t.raise(NextProgress(now, t.ramp))
	})
	return running
}

func (t *Tracker) Complete() {
	t.update(func() bool {
		if t.state != StateRunning {
			return false
		}
		t.state = StateCompleted
		t.percent = 100
		return true
	})
}

func (t *Tracker) Fail() {
	t.update(func() bool {
		if t.state != StateRunning {
			return false
		}
		t.state = StateFailed
		t.percent = math.NaN()
		return true
	})
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{State: t.state, Percent: t.percent}
}

// raise merges v by taking the max. Caller holds mu.
func (t *Tracker) raise(v float64) bool {
	if t.state != StateRunning {
		return false
	}
	if v > RampCeiling {
		v = RampCeiling
	}
	if v <= t.percent {
		return false
	}
	t.percent = v
	return true
}

func (t *Tracker) update(fn func() bool) {
	t.mu.Lock()
	changed := fn()
	snap := Snapshot{State: t.state, Percent: t.percent}
	listeners := t.listeners
	t.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l(snap)
	}
}
