// Package ink owns the in-progress stroke: it buffers and smooths pointer
// samples, interpolates fast movements, batches incremental drawing onto
// frame ticks, and commits finished strokes as reversible history
// commands.
package ink

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"KhataPad/internal/geom"
)

// Tool is the closed set of drawing tools. Behavior branching on Tool is
// table-driven (see the renderer's style table); the set is fixed.
type Tool int

const (
	ToolPen Tool = iota
	ToolPencil
	ToolHighlighter
	ToolEraser
)

func (t Tool) String() string {
	switch t {
	case ToolPen:
		return "pen"
	case ToolPencil:
		return "pencil"
	case ToolHighlighter:
		return "highlighter"
	case ToolEraser:
		return "eraser"
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// ParseTool maps a persisted tool name back to its Tool value.
func ParseTool(s string) (Tool, error) {
	switch s {
	case "pen":
		return ToolPen, nil
	case "pencil":
		return ToolPencil, nil
	case "highlighter":
		return ToolHighlighter, nil
	case "eraser":
		return ToolEraser, nil
	}
	return ToolPen, fmt.Errorf("unknown tool %q", s)
}

// StrokePoint is one sampled position. Immutable once recorded.
type StrokePoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Pressure  float64 `json:"pressure"`  // (0,1]
	Timestamp float64 `json:"timestamp"` // monotonic milliseconds
}

// Pos returns the sample position as a geometry point.
func (p StrokePoint) Pos() geom.Point { return geom.Point{X: p.X, Y: p.Y} }

// Stroke is one continuous mark. Points are append-only while the stroke
// is active; a committed stroke is never mutated in place, corrections
// happen through new history commands.
type Stroke struct {
	ID        string        `json:"id"`
	Tool      Tool          `json:"-"`
	Color     string        `json:"color"` // hex, e.g. "#1a1a2e"
	BaseWidth float64       `json:"base_width"`
	Opacity   float64       `json:"opacity"` // [0,1]
	Points    []StrokePoint `json:"points"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewStroke creates an empty stroke with a fresh id.
func NewStroke(tool Tool, color string, baseWidth, opacity float64) *Stroke {
	return &Stroke{
		ID:        uuid.NewString(),
		Tool:      tool,
		Color:     color,
		BaseWidth: baseWidth,
		Opacity:   opacity,
		CreatedAt: time.Now(),
	}
}

// Bounds returns the stroke's bounding box in logical pixels.
func (s *Stroke) Bounds() geom.Rect {
	pts := make([]geom.Point, len(s.Points))
	for i, p := range s.Points {
		pts[i] = p.Pos()
	}
	return geom.BoundsOf(pts)
}

// IsPointNearStroke reports whether p lies within threshold of the stroke
// path, accounting for half the stroke width. It fast-rejects via the
// padded bounding box before walking the segments. Pure function; used by
// the object-eraser and lasso tools, not by the drawing pipeline itself.
func IsPointNearStroke(p geom.Point, s *Stroke, threshold float64) bool {
	if len(s.Points) == 0 {
		return false
	}
	reach := threshold + s.BaseWidth/2
	if !s.Bounds().Expand(reach).Contains(p) {
		return false
	}
	if len(s.Points) == 1 {
		return geom.Dist(p, s.Points[0].Pos()) < reach
	}
	for i := 1; i < len(s.Points); i++ {
		if geom.PointSegmentDistance(p, s.Points[i-1].Pos(), s.Points[i].Pos()) < reach {
			return true
		}
	}
	return false
}
