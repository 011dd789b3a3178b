// Package geom holds the pure math used by the ink pipeline: distances,
// bounding boxes, the pressure/width curve and Bezier control points.
// Everything here is stateless and safe to call from any goroutine.
package geom

import "math"

// Point is a position on the drawing surface in logical pixels.
type Point struct {
	X float64
	Y float64
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// PointSegmentDistance returns the minimum distance from p to the segment ab.
func PointSegmentDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Dist(p, a)
	}
	// Project p onto ab, clamped to the segment.
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Dist(p, Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Expand grows the rect by pad on every side.
func (r Rect) Expand(pad float64) Rect {
	return Rect{
		MinX: r.MinX - pad,
		MinY: r.MinY - pad,
		MaxX: r.MaxX + pad,
		MaxY: r.MaxY + pad,
	}
}

// Contains reports whether p lies inside the rect (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// BoundsOf returns the bounding box of the given points.
// The zero Rect is returned for an empty slice.
func BoundsOf(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < r.MinX {
			r.MinX = p.X
		}
		if p.X > r.MaxX {
			r.MaxX = p.X
		}
		if p.Y < r.MinY {
			r.MinY = p.Y
		}
		if p.Y > r.MaxY {
			r.MaxY = p.Y
		}
	}
	return r
}

// PressureWidth maps pen pressure onto a stroke width. The curve is
// base * (0.7 + 0.6*pressure), so a segment never renders thinner than
// 70% or thicker than 130% of the nominal width regardless of how the
// hardware reports pressure.
func PressureWidth(base, pressure float64) float64 {
	if math.IsNaN(pressure) || pressure <= 0 {
		pressure = 0.5
	}
	if pressure > 1 {
		pressure = 1
	}
	w := base * (0.7 + 0.6*pressure)
	if w < base*0.7 {
		w = base * 0.7
	}
	if w > base*1.3 {
		w = base * 1.3
	}
	return w
}

// QuadSegment computes the quadratic Bezier segment used when smoothing
// three consecutive samples: the curve starts at the midpoint of prev and
// cur, bends around cur, and ends at the midpoint of cur and next. Chaining
// these segments gives continuous curvature at the joins (the standard
// quadratic-through-midpoints technique). When next is absent the caller
// should fall back to a straight line to cur.
func QuadSegment(prev, cur, next Point) (start, control, end Point) {
	return Midpoint(prev, cur), cur, Midpoint(cur, next)
}
