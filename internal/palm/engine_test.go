package palm

import (
	"math"
	"strings"
	"testing"
	"time"

	"KhataPad/internal/clock"
)

func testConfig() Config {
	return Config{
		SizeThreshold:          30,
		TemporalDelay:          40 * time.Millisecond,
		VelocityThreshold:      2,
		EdgeRejectionZone:      0.15,
		EnableTemporalDelay:    true,
		EnableVelocityAnalysis: true,
		EnableEdgeFiltering:    true,
	}
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual()
	return NewEngine(cfg, clk, nil), clk
}

func TestImmediateRejectionBySize(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	d := e.CheckImmediateRejection(Contact{PointerID: 1, X: 100, Y: 100, Width: 50, Height: 50}, 0)
	if !d.Reject {
		t.Fatal("50x50 contact should be rejected at threshold 30")
	}
	if !strings.Contains(d.Reason, "exceeds threshold") {
		t.Errorf("reason %q should mention the threshold", d.Reason)
	}

	d = e.CheckImmediateRejection(Contact{PointerID: 1, X: 100, Y: 100, Width: 15, Height: 15}, 0)
	if d.Reject {
		t.Errorf("15x15 contact should pass, got rejected: %s", d.Reason)
	}
}

func TestImmediateRejectionMalformed(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	bad := []Contact{
		{PointerID: 1, X: math.NaN(), Y: 10, Width: 5, Height: 5},
		{PointerID: 1, X: 10, Y: math.Inf(1), Width: 5, Height: 5},
		{PointerID: 1, X: 10, Y: 10, Width: 0, Height: 5},
		{PointerID: 1, X: 10, Y: 10, Width: 5, Height: -1},
	}
	for _, c := range bad {
		if d := e.CheckImmediateRejection(c, 600); !d.Reject {
			t.Errorf("malformed contact %+v should be rejected", c)
		}
	}
}

func TestEdgeZoneRejection(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	// Bottom 15% of a 1000px surface starts at y=850.
	d := e.CheckImmediateRejection(Contact{PointerID: 1, X: 100, Y: 900, Width: 10, Height: 10}, 1000)
	if !d.Reject {
		t.Error("contact in the bottom edge zone should be rejected")
	}
	d = e.CheckImmediateRejection(Contact{PointerID: 1, X: 100, Y: 700, Width: 10, Height: 10}, 1000)
	if d.Reject {
		t.Errorf("contact above the edge zone should pass: %s", d.Reason)
	}

	// Without a known surface height the edge tier stays out of the way.
	d = e.CheckImmediateRejection(Contact{PointerID: 1, X: 100, Y: 900, Width: 10, Height: 10}, 0)
	if d.Reject {
		t.Error("edge filtering needs a surface height to apply")
	}

	cfg := testConfig()
	cfg.EnableEdgeFiltering = false
	e2, _ := newTestEngine(t, cfg)
	d = e2.CheckImmediateRejection(Contact{PointerID: 1, X: 100, Y: 900, Width: 10, Height: 10}, 1000)
	if d.Reject {
		t.Error("disabled edge filtering must not reject")
	}
}

func TestLargerThanActiveStylus(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	// A small live contact is drawing.
	e.RegisterPointerDown(Contact{PointerID: 1, X: 10, Y: 10, Width: 8, Height: 8})

	// A contact 1.5x larger appearing now is a palm.
	d := e.CheckImmediateRejection(Contact{PointerID: 2, X: 40, Y: 40, Width: 20, Height: 20}, 0)
	if !d.Reject {
		t.Error("large contact beside a live stylus contact should be rejected")
	}

	// Barely larger is still plausible input.
	d = e.CheckImmediateRejection(Contact{PointerID: 3, X: 40, Y: 40, Width: 10, Height: 10}, 0)
	if d.Reject {
		t.Errorf("contact under the 1.5x ratio should pass: %s", d.Reason)
	}

	e.UnregisterPointer(1)
	d = e.CheckImmediateRejection(Contact{PointerID: 2, X: 40, Y: 40, Width: 20, Height: 20}, 0)
	if d.Reject {
		t.Error("no live stylus contact, size-ratio check should not fire")
	}
}

func TestDelayDisabledAcceptsSynchronously(t *testing.T) {
	cfg := testConfig()
	cfg.EnableTemporalDelay = false
	e, _ := newTestEngine(t, cfg)

	var got *Contact
	c := Contact{PointerID: 1, X: 10, Y: 10, Width: 30, Height: 30}
	e.QueuePointerForDelay(c, func(c Contact) { got = &c }, func(Contact, string) {
		t.Fatal("onReject must not fire with delay disabled")
	})
	if got == nil || got.PointerID != 1 {
		t.Fatal("onAccept should fire synchronously with the original contact")
	}
}

func TestDelayedAcceptanceAfterTimeout(t *testing.T) {
	e, clk := newTestEngine(t, testConfig())

	var accepts, rejects int
	var accepted Contact
	c := Contact{PointerID: 1, X: 10, Y: 10, Width: 30, Height: 30}
	e.QueuePointerForDelay(c,
		func(c Contact) { accepts++; accepted = c },
		func(Contact, string) { rejects++ })

	clk.Advance(39 * time.Millisecond)
	if accepts != 0 {
		t.Fatal("candidate accepted before the delay elapsed")
	}
	clk.Advance(1 * time.Millisecond)
	if accepts != 1 || rejects != 0 {
		t.Fatalf("want exactly one accept after 40ms, got accepts=%d rejects=%d", accepts, rejects)
	}
	if accepted != c {
		t.Errorf("accept should carry the original contact snapshot, got %+v", accepted)
	}

	// Further time must not re-fire anything.
	clk.Advance(time.Second)
	if accepts != 1 || rejects != 0 {
		t.Errorf("callbacks fired again: accepts=%d rejects=%d", accepts, rejects)
	}
}

func TestSmallerStylusPreemptsPendingPalm(t *testing.T) {
	e, clk := newTestEngine(t, testConfig())

	var palmAccepts, palmRejects int
	var palmReason string
	palm := Contact{PointerID: 1, X: 100, Y: 100, Width: 30, Height: 30}
	e.QueuePointerForDelay(palm,
		func(Contact) { palmAccepts++ },
		func(_ Contact, reason string) { palmRejects++; palmReason = reason })

	var stylusAccepts int
	stylus := Contact{PointerID: 2, X: 120, Y: 90, Width: 8, Height: 8}
	clk.Advance(10 * time.Millisecond)
	e.QueuePointerForDelay(stylus,
		func(Contact) { stylusAccepts++ },
		func(_ Contact, reason string) { t.Fatalf("stylus contact rejected: %s", reason) })

	// Both decisions land before the 40ms window elapses.
	if stylusAccepts != 1 {
		t.Fatal("small contact should be accepted immediately")
	}
	if palmRejects != 1 {
		t.Fatal("pending large contact should be rejected by the stylus")
	}
	if !strings.Contains(palmReason, "smaller stylus") {
		t.Errorf("reason %q should mention the smaller stylus", palmReason)
	}

	// The original timer expiring later must not resurrect the palm.
	clk.Advance(time.Second)
	if palmAccepts != 0 || palmRejects != 1 {
		t.Errorf("pre-empted candidate fired again: accepts=%d rejects=%d", palmAccepts, palmRejects)
	}
}

func TestVelocityTierRejectsStationaryLargeTouch(t *testing.T) {
	e, clk := newTestEngine(t, testConfig())

	// 28px is over 0.8 * 30 but under the hard threshold.
	c := Contact{PointerID: 1, X: 100, Y: 100, Width: 28, Height: 28}
	e.RegisterPointerDown(c)

	// Tiny wobble, still inside the first 100ms: never rejected.
	clk.Advance(50 * time.Millisecond)
	if d := e.TrackPointerMovement(1, 100.5, 100); d.Reject {
		t.Fatalf("rejected before 100ms of tracking: %s", d.Reason)
	}

	clk.Advance(60 * time.Millisecond)
	d := e.TrackPointerMovement(1, 100.6, 100.1)
	if !d.Reject {
		t.Fatal("near-stationary large contact should be rejected after 100ms")
	}
	if !strings.Contains(d.Reason, "stationary large touch") {
		t.Errorf("unexpected reason %q", d.Reason)
	}
}

func TestVelocityTierPassesMovingContact(t *testing.T) {
	e, clk := newTestEngine(t, testConfig())
	e.RegisterPointerDown(Contact{PointerID: 1, X: 100, Y: 100, Width: 28, Height: 28})

	clk.Advance(120 * time.Millisecond)
	if d := e.TrackPointerMovement(1, 110, 100); d.Reject {
		t.Errorf("moving contact rejected: %s", d.Reason)
	}

	// Small contacts are never the velocity tier's business.
	e.RegisterPointerDown(Contact{PointerID: 2, X: 50, Y: 50, Width: 10, Height: 10})
	clk.Advance(200 * time.Millisecond)
	if d := e.TrackPointerMovement(2, 50, 50); d.Reject {
		t.Errorf("small stationary contact rejected: %s", d.Reason)
	}
}

func TestVelocityTierDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableVelocityAnalysis = false
	e, clk := newTestEngine(t, cfg)
	e.RegisterPointerDown(Contact{PointerID: 1, X: 100, Y: 100, Width: 28, Height: 28})
	clk.Advance(200 * time.Millisecond)
	if d := e.TrackPointerMovement(1, 100, 100); d.Reject {
		t.Errorf("disabled velocity tier rejected a contact: %s", d.Reason)
	}
}

func TestTrackUnknownPointerIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	if d := e.TrackPointerMovement(42, 10, 10); d.Reject {
		t.Error("tracking an unregistered pointer must not reject")
	}
}

func TestUnregisterCancelsPendingTimer(t *testing.T) {
	e, clk := newTestEngine(t, testConfig())

	fired := false
	e.QueuePointerForDelay(Contact{PointerID: 1, X: 10, Y: 10, Width: 30, Height: 30},
		func(Contact) { fired = true },
		func(Contact, string) { fired = true })
	e.UnregisterPointer(1)

	clk.Advance(time.Second)
	if fired {
		t.Error("unregistered pointer's timer fired")
	}
}

func TestCancelAllPending(t *testing.T) {
	e, clk := newTestEngine(t, testConfig())

	fired := 0
	cb := func(Contact) { fired++ }
	rj := func(Contact, string) { fired++ }
	e.QueuePointerForDelay(Contact{PointerID: 1, X: 10, Y: 10, Width: 30, Height: 30}, cb, rj)
	e.QueuePointerForDelay(Contact{PointerID: 2, X: 20, Y: 20, Width: 25, Height: 25}, cb, rj)
	e.RegisterPointerDown(Contact{PointerID: 3, X: 30, Y: 30, Width: 28, Height: 28})

	e.CancelAllPending()
	clk.Advance(time.Second)
	if fired != 0 {
		t.Errorf("%d callbacks fired after CancelAllPending", fired)
	}
	if d := e.TrackPointerMovement(3, 30, 30); d.Reject {
		t.Error("sessions should have been cleared")
	}
}
