// Package palm decides whether a pointer contact is deliberate ink input
// or an accidental palm resting on the surface. Three independent tiers
// cooperate: an immediate size/edge check, a temporal delay that lets a
// smaller stylus contact pre-empt an ambiguous one, and a velocity tier
// that rejects large contacts which never move. Any subset can be disabled
// per device; capacitive screens without pen discrimination need all three.
package palm

import (
	"math"
	"time"
)

// Contact is a snapshot of a single platform-reported touch/pen contact.
type Contact struct {
	PointerID int
	X, Y      float64
	Width     float64
	Height    float64
}

// size returns the larger contact dimension, the measure all tiers use.
func (c Contact) size() float64 {
	if c.Width > c.Height {
		return c.Width
	}
	return c.Height
}

// malformed reports an impossible contact: NaN/Inf coordinates or a
// non-positive contact area. These are rejection candidates, never errors;
// the heuristics stay total over any input.
func (c Contact) malformed() bool {
	for _, v := range []float64{c.X, c.Y, c.Width, c.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return c.Width <= 0 || c.Height <= 0
}

// Decision is the outcome of a rejection check.
type Decision struct {
	Reject bool
	Reason string
}

func accept() Decision { return Decision{} }

func reject(reason string) Decision {
	return Decision{Reject: true, Reason: reason}
}

// Config tunes the three rejection tiers. Immutable for the lifetime of an
// Engine.
type Config struct {
	// SizeThreshold is the contact dimension (px) above which Tier 1
	// rejects outright.
	SizeThreshold float64
	// TemporalDelay is how long Tier 2 holds an ambiguous contact before
	// accepting it.
	TemporalDelay time.Duration
	// VelocityThreshold is the cumulative movement (px) below which Tier 3
	// treats a large contact as a resting palm.
	VelocityThreshold float64
	// EdgeRejectionZone is the bottom fraction (0..1) of the surface where
	// contacts are rejected; resting palms habitually land there.
	EdgeRejectionZone float64

	EnableTemporalDelay    bool
	EnableVelocityAnalysis bool
	EnableEdgeFiltering    bool
}

// DefaultConfig returns the tuning used on plain capacitive screens.
func DefaultConfig() Config {
	return Config{
		SizeThreshold:          40,
		TemporalDelay:          50 * time.Millisecond,
		VelocityThreshold:      2,
		EdgeRejectionZone:      0.15,
		EnableTemporalDelay:    true,
		EnableVelocityAnalysis: true,
		EnableEdgeFiltering:    true,
	}
}

const (
	// palmSizeRatio: a contact this many times larger than a live smaller
	// contact is treated as a palm next to a pen tip.
	palmSizeRatio = 1.5

	// velocityMinAge: Tier 3 never rejects before this much tracked life;
	// even a deliberate contact is stationary for the first instants.
	velocityMinAge = 100 * time.Millisecond

	// largeContactFactor: Tier 3 only considers contacts above this
	// fraction of the size threshold.
	largeContactFactor = 0.8
)
