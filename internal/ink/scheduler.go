package ink

import (
	"sync"
	"time"

	"KhataPad/internal/clock"
)

// FrameScheduler coalesces redraw work onto frame ticks. Multiple Request
// calls before the pending tick fires are merged into a single run, so
// rendering work is never duplicated for the same frame.
type FrameScheduler interface {
	// Request schedules fn for the next frame. If a frame is already
	// pending, fn replaces the pending callback.
	Request(fn func())
	// Cancel drops any pending callback without running it.
	Cancel()
}

// FrameInterval approximates a 60Hz paint cadence.
const FrameInterval = 16 * time.Millisecond

// TickScheduler is a FrameScheduler driven by one-shot timers from a
// Clock. It delivers callbacks on the timer goroutine; callers that need
// a particular thread (the UI surface does) wrap the callback themselves.
type TickScheduler struct {
	clk      clock.Clock
	interval time.Duration

	mu      sync.Mutex
	pending func()
	timer   clock.Timer
}

// NewTickScheduler creates a scheduler ticking at the given interval. A
// nil clk uses the system clock; a non-positive interval uses
// FrameInterval.
func NewTickScheduler(clk clock.Clock, interval time.Duration) *TickScheduler {
	if clk == nil {
		clk = clock.System()
	}
	if interval <= 0 {
		interval = FrameInterval
	}
	return &TickScheduler{clk: clk, interval: interval}
}

func (s *TickScheduler) Request(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = fn
	if s.timer != nil {
		return // a frame is already scheduled; the work is merged
	}
	s.timer = s.clk.AfterFunc(s.interval, s.fire)
}

func (s *TickScheduler) fire() {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *TickScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

// ManualScheduler runs callbacks only when Fire is called. Tests use it to
// step the engine one frame at a time.
type ManualScheduler struct {
	pending func()
}

func (s *ManualScheduler) Request(fn func()) { s.pending = fn }

func (s *ManualScheduler) Cancel() { s.pending = nil }

// Fire runs the pending callback, if any, and reports whether one ran.
func (s *ManualScheduler) Fire() bool {
	fn := s.pending
	s.pending = nil
	if fn == nil {
		return false
	}
	fn()
	return true
}
