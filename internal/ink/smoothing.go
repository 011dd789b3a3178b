package ink

import (
	"KhataPad/internal/geom"
)

// Interpolation thresholds. A fast pointer sweep delivers widely spaced
// samples that would render as straight, jagged segments; synthetic
// intermediate points are inserted at a spacing that grows with the jump
// size so huge jumps do not flood the stroke with points.
const (
	interpTrigger    = 10.0 // jumps shorter than this are left alone
	interpMinSpacing = 4.0
	interpMaxSpacing = 12.0
)

// interpSpacing returns the spacing for synthetic points across a jump of
// length d.
func interpSpacing(d float64) float64 {
	s := d / 6
	if s < interpMinSpacing {
		s = interpMinSpacing
	}
	if s > interpMaxSpacing {
		s = interpMaxSpacing
	}
	return s
}

// interpolate returns the synthetic points to insert between a and b, not
// including either endpoint. Pressure and timestamp are lerped so the
// invariants on committed strokes (monotonic timestamps, pressure in
// range) hold for synthetic samples too.
func interpolate(a, b StrokePoint) []StrokePoint {
	d := geom.Dist(a.Pos(), b.Pos())
	if d <= interpTrigger {
		return nil
	}
	n := int(d / interpSpacing(d))
	if n < 1 {
		return nil
	}
	out := make([]StrokePoint, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n+1)
		out = append(out, StrokePoint{
			X:         a.X + (b.X-a.X)*t,
			Y:         a.Y + (b.Y-a.Y)*t,
			Pressure:  a.Pressure + (b.Pressure-a.Pressure)*t,
			Timestamp: a.Timestamp + (b.Timestamp-a.Timestamp)*t,
		})
	}
	return out
}

// rollingWeights blend an incoming sample with the previous two. Light on
// purpose: heavier smoothing mid-stroke costs perceptible drawing lag, so
// the thorough pass waits until the stroke ends.
var rollingWeights = [3]float64{0.6, 0.25, 0.15}

// rollingSmooth damps jitter on an incoming point using the short tail of
// already-recorded points. Pressure and timestamp are taken from the raw
// sample; only the position is blended.
func rollingSmooth(tail []StrokePoint, p StrokePoint) StrokePoint {
	if len(tail) == 0 {
		return p
	}
	x := p.X * rollingWeights[0]
	y := p.Y * rollingWeights[0]
	total := rollingWeights[0]
	for i := 0; i < 2 && i < len(tail); i++ {
		prev := tail[len(tail)-1-i]
		w := rollingWeights[i+1]
		x += prev.X * w
		y += prev.Y * w
		total += w
	}
	p.X = x / total
	p.Y = y / total
	return p
}

// finalSmooth is the higher-quality pass applied once over the whole point
// sequence at stroke end. A centered three-tap average with pinned
// endpoints: the stroke keeps its exact start and end while interior
// jitter is damped more aggressively than the rolling pass allows
// mid-stroke.
func finalSmooth(pts []StrokePoint) []StrokePoint {
	if len(pts) < 3 {
		return pts
	}
	out := make([]StrokePoint, len(pts))
	out[0] = pts[0]
	out[len(pts)-1] = pts[len(pts)-1]
	for i := 1; i < len(pts)-1; i++ {
		p := pts[i]
		p.X = pts[i-1].X*0.25 + pts[i].X*0.5 + pts[i+1].X*0.25
		p.Y = pts[i-1].Y*0.25 + pts[i].Y*0.5 + pts[i+1].Y*0.25
		out[i] = p
	}
	return out
}
