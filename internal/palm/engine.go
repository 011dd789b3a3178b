package palm

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"KhataPad/internal/clock"
)

// session tracks a live pointer for the velocity tier.
type session struct {
	contact    Contact
	startTime  time.Time
	lastX      float64
	lastY      float64
	cumulative float64
}

// pendingCandidate is a contact held by the temporal-delay tier. It exists
// only between contact start and the delay expiring or being pre-empted.
type pendingCandidate struct {
	contact  Contact
	queuedAt time.Time
	timer    clock.Timer
	onAccept func(Contact)
	onReject func(Contact, string)
}

// Engine owns all per-pointer rejection state for one drawing surface.
// Construct one per surface and Dispose it on teardown; the maps are never
// shared across surfaces.
//
// Exactly one of onAccept/onReject fires per queued contact, exactly once.
// Callbacks run without the engine lock held, so they may call back into
// the engine.
type Engine struct {
	cfg Config
	clk clock.Clock
	log *slog.Logger

	mu       sync.Mutex
	sessions map[int]*session
	pending  map[int]*pendingCandidate

	// stylusID marks the pointer accepted as a definite stylus, -1 when
	// none. A later larger contact is measured against stylusSize.
	stylusID   int
	stylusSize float64
}

// NewEngine creates an Engine with the given tuning. A nil clk uses the
// system clock; a nil logger keeps the engine silent.
func NewEngine(cfg Config, clk clock.Clock, log *slog.Logger) *Engine {
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		cfg:      cfg,
		clk:      clk,
		log:      log,
		sessions: make(map[int]*session),
		pending:  make(map[int]*pendingCandidate),
		stylusID: -1,
	}
}

// Config returns the engine's immutable tuning.
func (e *Engine) Config() Config { return e.cfg }

// CheckImmediateRejection is Tier 1. It rejects oversized contacts, edge
// contacts when edge filtering is enabled and a surface height is known
// (pass <= 0 when it is not), and contacts at least 1.5x larger than a
// live smaller contact. Immediate checks take precedence over the
// velocity tier: a contact rejected here is never registered, so Tier 3
// cannot report it first.
func (e *Engine) CheckImmediateRejection(c Contact, surfaceHeight float64) Decision {
	if c.malformed() {
		return reject("malformed contact")
	}

	sz := c.size()
	if sz > e.cfg.SizeThreshold {
		return reject(fmt.Sprintf("contact %.0fx%.0f exceeds threshold %.0f", c.Width, c.Height, e.cfg.SizeThreshold))
	}

	if e.cfg.EnableEdgeFiltering && surfaceHeight > 0 {
		if c.Y >= surfaceHeight*(1-e.cfg.EdgeRejectionZone) {
			return reject("contact inside bottom edge rejection zone")
		}
	}

	// A large contact appearing while a smaller one is live is almost
	// certainly a palm landing next to the pen tip.
	e.mu.Lock()
	smallest := math.Inf(1)
	if e.stylusID >= 0 && e.stylusID != c.PointerID {
		smallest = e.stylusSize
	}
	for id, s := range e.sessions {
		if id == c.PointerID {
			continue
		}
		if s.contact.size() < smallest {
			smallest = s.contact.size()
		}
	}
	e.mu.Unlock()

	if smallest < sz && sz >= smallest*palmSizeRatio {
		return reject("contact larger than active stylus contact")
	}

	return accept()
}

// QueuePointerForDelay is Tier 2. Contacts smaller than half the size
// threshold are definitely-stylus and accepted synchronously; accepting
// one also retroactively rejects any still-pending larger contact, because
// a genuine pen tip always wins over a simultaneously resting palm. Larger
// contacts are held for the configured delay and accepted only if nothing
// pre-empts them.
func (e *Engine) QueuePointerForDelay(c Contact, onAccept func(Contact), onReject func(Contact, string)) {
	if !e.cfg.EnableTemporalDelay {
		onAccept(c)
		return
	}

	sz := c.size()
	if c.malformed() {
		onReject(c, "malformed contact")
		return
	}

	if sz < e.cfg.SizeThreshold/2 {
		e.mu.Lock()
		e.stylusID = c.PointerID
		e.stylusSize = sz
		var preempted []*pendingCandidate
		for id, p := range e.pending {
			if p.contact.size() >= sz*palmSizeRatio {
				p.timer.Stop()
				delete(e.pending, id)
				preempted = append(preempted, p)
			}
		}
		e.mu.Unlock()

		for _, p := range preempted {
			e.log.Debug("pending contact pre-empted",
				slog.Int("pointer", p.contact.PointerID),
				slog.Int("stylus", c.PointerID))
			p.onReject(p.contact, "rejected by smaller stylus touch")
		}
		onAccept(c)
		return
	}

	p := &pendingCandidate{
		contact:  c,
		queuedAt: e.clk.Now(),
		onAccept: onAccept,
		onReject: onReject,
	}
	e.mu.Lock()
	e.pending[c.PointerID] = p
	// The timer re-checks the map before firing: a candidate removed by
	// pre-emption or unregistration must stay silent.
	p.timer = e.clk.AfterFunc(e.cfg.TemporalDelay, func() {
		e.mu.Lock()
		cur, ok := e.pending[c.PointerID]
		if !ok || cur != p {
			e.mu.Unlock()
			return
		}
		delete(e.pending, c.PointerID)
		e.mu.Unlock()
		p.onAccept(p.contact)
	})
	e.mu.Unlock()
}

// RegisterPointerDown starts movement tracking for a contact. Call it for
// every contact that survives Tier 1.
func (e *Engine) RegisterPointerDown(c Contact) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[c.PointerID] = &session{
		contact:   c,
		startTime: e.clk.Now(),
		lastX:     c.X,
		lastY:     c.Y,
	}
}

// TrackPointerMovement is Tier 3. It accumulates Euclidean movement since
// contact start and, once the contact has been tracked for at least 100ms,
// rejects a large contact whose cumulative movement stays under the
// velocity threshold: a contact in active use moves, a resting palm does
// not.
func (e *Engine) TrackPointerMovement(pointerID int, x, y float64) Decision {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return reject("malformed contact")
	}

	e.mu.Lock()
	s, ok := e.sessions[pointerID]
	if !ok {
		e.mu.Unlock()
		return accept()
	}
	s.cumulative += math.Hypot(x-s.lastX, y-s.lastY)
	s.lastX, s.lastY = x, y
	age := e.clk.Now().Sub(s.startTime)
	large := s.contact.size() > largeContactFactor*e.cfg.SizeThreshold
	moved := s.cumulative
	e.mu.Unlock()

	if !e.cfg.EnableVelocityAnalysis {
		return accept()
	}
	if age < velocityMinAge {
		return accept()
	}
	if large && moved < e.cfg.VelocityThreshold {
		return reject("stationary large touch")
	}
	return accept()
}

// UnregisterPointer drops all state for a pointer: its movement session,
// any pending delay timer (without firing either callback), and the active
// stylus marker if it belonged to this pointer.
func (e *Engine) UnregisterPointer(pointerID int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, pointerID)
	if p, ok := e.pending[pointerID]; ok {
		p.timer.Stop()
		delete(e.pending, pointerID)
	}
	if e.stylusID == pointerID {
		e.stylusID = -1
		e.stylusSize = 0
	}
}

// CancelAllPending clears every pending timer and tracked session without
// invoking any callbacks. Used on surface teardown so no timer can fire
// against a disposed surface.
func (e *Engine) CancelAllPending() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, p := range e.pending {
		p.timer.Stop()
		delete(e.pending, id)
	}
	for id := range e.sessions {
		delete(e.sessions, id)
	}
	e.stylusID = -1
	e.stylusSize = 0
}
