// Package input turns platform pointer events into stroke capture. The
// gateway owns the capture lifecycle for one drawing surface: it runs
// every touch contact through palm rejection, enforces the
// one-active-pointer rule, and feeds accepted samples to the ink engine.
package input

import (
	"log/slog"

	"KhataPad/internal/ink"
	"KhataPad/internal/palm"
)

// Kind classifies a pointer by the platform's own device report.
type Kind int

const (
	KindTouch Kind = iota
	KindPen
	KindMouse
)

func (k Kind) String() string {
	switch k {
	case KindPen:
		return "pen"
	case KindMouse:
		return "mouse"
	}
	return "touch"
}

// PointerEvent is one normalized platform pointer sample in logical
// surface coordinates.
type PointerEvent struct {
	ID       int
	Kind     Kind
	X, Y     float64
	Pressure float64 // 0 when the device does not report pressure
	Width    float64 // contact patch, touch only
	Height   float64
	TimeMs   float64 // monotonic milliseconds
}

// Capturer is the stroke sink the gateway drives. *ink.Engine satisfies
// it.
type Capturer interface {
	BeginStroke(p ink.StrokePoint)
	ExtendStroke(p ink.StrokePoint)
	EndStroke()
	CancelStroke()
}

const noPointer = -1

// Gateway routes pointer events for one surface. Single goroutine only,
// like the engine it feeds; the palm engine underneath does its own
// locking for its delay timers.
type Gateway struct {
	palm *palm.Engine
	sink Capturer
	log  *slog.Logger

	surfaceHeight float64

	// activeID is the pointer currently drawing, noPointer when idle.
	// Only one pointer can own the surface; a second contact that clears
	// palm rejection later is still dropped when it tries to capture.
	activeID int
}

// NewGateway wires a gateway to a palm engine and a stroke sink. A nil
// logger keeps it silent.
func NewGateway(pe *palm.Engine, sink Capturer, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Gateway{
		palm:     pe,
		sink:     sink,
		log:      log,
		activeID: noPointer,
	}
}

// SetSurfaceHeight updates the height used by the edge rejection zone.
// Call it on surface resize.
func (g *Gateway) SetSurfaceHeight(h float64) { g.surfaceHeight = h }

// Capturing reports whether a pointer currently owns the surface.
func (g *Gateway) Capturing() bool { return g.activeID != noPointer }

// PointerDown handles a new contact. Contacts arriving while another
// pointer is drawing are dropped outright: two simultaneous contacts
// mean the user is not writing. Contacts arriving while another is still
// held by the delay tier DO go through, so a real pen tip can pre-empt a
// palm that landed first.
func (g *Gateway) PointerDown(ev PointerEvent) {
	if g.activeID != noPointer {
		g.log.Debug("extra contact ignored", slog.Int("pointer", ev.ID), slog.String("kind", ev.Kind.String()))
		return
	}

	c := contactOf(ev)

	// Pen and mouse are hardware-classified: no palm heuristics apply,
	// but the contact is still registered so the relative-size tier can
	// measure later touches against it.
	if ev.Kind != KindTouch {
		g.palm.RegisterPointerDown(c)
		g.begin(ev)
		return
	}

	if d := g.palm.CheckImmediateRejection(c, g.surfaceHeight); d.Reject {
		g.log.Debug("contact rejected", slog.Int("pointer", ev.ID), slog.String("reason", d.Reason))
		return
	}
	g.palm.RegisterPointerDown(c)

	g.palm.QueuePointerForDelay(c,
		func(palm.Contact) {
			// A pointer that won capture while this one sat in the delay
			// queue keeps it; the late acceptance is void.
			if g.activeID != noPointer {
				g.palm.UnregisterPointer(ev.ID)
				return
			}
			g.begin(ev)
		},
		func(_ palm.Contact, reason string) {
			g.palm.UnregisterPointer(ev.ID)
			g.log.Debug("contact rejected", slog.Int("pointer", ev.ID), slog.String("reason", reason))
		},
	)
}

// PointerMove handles movement. Samples from the capturing pointer extend
// the stroke; everything else only feeds the velocity tier, which may
// retroactively revoke a touch capture that turned out to be a resting
// palm.
func (g *Gateway) PointerMove(ev PointerEvent) {
	if ev.ID == g.activeID {
		if ev.Kind == KindTouch {
			if d := g.palm.TrackPointerMovement(ev.ID, ev.X, ev.Y); d.Reject {
				g.log.Debug("capture revoked", slog.Int("pointer", ev.ID), slog.String("reason", d.Reason))
				g.sink.CancelStroke()
				g.palm.UnregisterPointer(ev.ID)
				g.activeID = noPointer
				return
			}
		}
		g.sink.ExtendStroke(pointOf(ev))
		return
	}
	// Not capturing: still feed the tracker so an ignored or queued
	// contact accumulates movement. Samples from a contact in the delay
	// queue are dropped by design; the stroke restarts at the accept
	// position.
	g.palm.TrackPointerMovement(ev.ID, ev.X, ev.Y)
}

// PointerUp ends a contact. The capturing pointer commits its stroke;
// any other pointer just drops its rejection state, which also silences
// a delay timer that has not fired yet.
func (g *Gateway) PointerUp(ev PointerEvent) {
	if ev.ID == g.activeID {
		g.sink.EndStroke()
		g.activeID = noPointer
	}
	g.palm.UnregisterPointer(ev.ID)
}

// PointerCancel handles a platform-cancelled contact (focus loss, system
// gesture). The in-progress stroke is discarded, not committed.
func (g *Gateway) PointerCancel(ev PointerEvent) {
	if ev.ID == g.activeID {
		g.sink.CancelStroke()
		g.activeID = noPointer
	}
	g.palm.UnregisterPointer(ev.ID)
}

// Dispose tears the gateway down: the active stroke is cancelled and all
// palm timers are stopped so nothing fires against a dead surface.
func (g *Gateway) Dispose() {
	if g.activeID != noPointer {
		g.sink.CancelStroke()
		g.activeID = noPointer
	}
	g.palm.CancelAllPending()
}

func (g *Gateway) begin(ev PointerEvent) {
	g.activeID = ev.ID
	g.sink.BeginStroke(pointOf(ev))
}

// contactOf maps an event to a palm contact. Devices that report no
// contact patch (pen, mouse) get a nominal 1x1 so the size heuristics
// treat them as definitely-stylus.
func contactOf(ev PointerEvent) palm.Contact {
	w, h := ev.Width, ev.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return palm.Contact{PointerID: ev.ID, X: ev.X, Y: ev.Y, Width: w, Height: h}
}

func pointOf(ev PointerEvent) ink.StrokePoint {
	return ink.StrokePoint{X: ev.X, Y: ev.Y, Pressure: ev.Pressure, Timestamp: ev.TimeMs}
}
