// Package clock abstracts wall-clock time and one-shot timers so that
// timer-driven heuristics (the palm rejection delay tier, frame flushing)
// can run against a manual clock in tests instead of real timers.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable one-shot timer.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from firing. Stopping an already-fired timer is a no-op.
	Stop() bool
}

// Clock supplies the current time and schedules callbacks.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f after d has elapsed. f runs on an unspecified
	// goroutine for the system clock and inline during Advance for the
	// manual clock.
	AfterFunc(d time.Duration, f func()) Timer
}

// System returns a Clock backed by the time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manual is a test clock whose time only moves when Advance is called.
// Callbacks scheduled with AfterFunc fire synchronously, in deadline
// order, from inside Advance.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

// NewManual creates a Manual clock starting at an arbitrary fixed instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{clock: m, when: m.now.Add(d), f: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every due timer in order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	deadline := m.now

	var due []*manualTimer
	var rest []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.when.After(deadline) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	m.timers = rest
	sort.Slice(due, func(i, j int) bool { return due[i].when.Before(due[j].when) })
	m.mu.Unlock()

	for _, t := range due {
		t.fired = true
		t.f()
	}
}

type manualTimer struct {
	clock   *Manual
	when    time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
