package engine

import (
	"sort"
	"sync"
	"time"
)

// Clock provides wall time and one-shot timers
// Real-time operations use RealClock; tests drive ManualClock
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback
type Timer interface {
	// Stop prevents the callback from firing, reports false if it already fired or was stopped
	Stop() bool
}

// RealClock provides the real system time with monotonic clock readings
type RealClock struct{}

// NewRealClock creates a new monotonic clock
func NewRealClock() *RealClock {
	return &RealClock{}
}

// Now returns the current time with monotonic clock reading
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f on its own goroutine after d
func (c *RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualClock provides a controllable time source for testing
// Callbacks fire synchronously inside Advance, in deadline order
type ManualClock struct {
	mu          sync.Mutex
	currentTime time.Time
	timers      []*manualTimer
	seq         uint64
}

type manualTimer struct {
	clock    *ManualClock
	deadline time.Time
	seq      uint64
	f        func()
	done     bool
}

// NewManualClock creates a new manual clock with the given start time
func NewManualClock(startTime time.Time) *ManualClock {
	return &ManualClock{
		currentTime: startTime,
	}
}

// Now returns the current mocked time
func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// AfterFunc registers f to fire once the clock has been advanced by d
func (m *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{
		clock:    m,
		deadline: m.currentTime.Add(d),
		seq:      m.seq,
		f:        f,
	}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward, firing due callbacks without holding the lock
// Callbacks may register new timers; those due within the window also fire
func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.currentTime.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.nextDue(target)
		if t == nil {
			m.currentTime = target
			m.mu.Unlock()
			return
		}
		t.done = true
		if t.deadline.After(m.currentTime) {
			m.currentTime = t.deadline
		}
		m.mu.Unlock()

		t.f()
	}
}

// nextDue pops the earliest pending timer at or before target
func (m *ManualClock) nextDue(target time.Time) *manualTimer {
	sort.SliceStable(m.timers, func(i, j int) bool {
		a, b := m.timers[i], m.timers[j]
		if a.deadline.Equal(b.deadline) {
			return a.seq < b.seq
		}
		return a.deadline.Before(b.deadline)
	})
	if len(m.timers) == 0 || m.timers[0].deadline.After(target) {
		return nil
	}
	t := m.timers[0]
	m.timers = m.timers[1:]
	return t
}

// Pending returns the number of timers not yet fired or stopped
func (m *ManualClock) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (t *manualTimer) Stop() bool {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	for i, p := range m.timers {
		if p == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			break
		}
	}
	return true
}
