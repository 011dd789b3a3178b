// Package render paints stroke segments onto the ink layer using
// tool-specific compositing rules. Paths are rasterized through gg into a
// scratch layer, then composited with the tool's blend rule over the
// dirty region only; full redraws are reserved for resize, undo/redo,
// template changes, and the post-smoothing repaint at stroke end.
package render

import (
	"github.com/gogpu/gg"

	"KhataPad/internal/ink"
)

// compositeOp is the Porter-Duff/blend rule a tool composites with.
type compositeOp int

const (
	opSourceOver compositeOp = iota
	opMultiply
	opDestinationOut
)

// toolStyle is one row of the render-rule table.
type toolStyle struct {
	op         compositeOp
	widthScale float64
	minWidth   float64 // floor in logical px, 0 for none
	alpha      float64 // fixed alpha override, 0 means use stroke opacity
	lineCap    gg.LineCap
	pressure   bool // width modulated by pen pressure
	grain      bool // stroke with the cached grain pattern brush
}

// toolStyles is the closed render-rule table. The tool set is fixed;
// anything unknown falls back to the pen row.
var toolStyles = [...]toolStyle{
	// Crisp pressure-sensitive line, round caps and joins, no shadow.
	ink.ToolPen: {
		op:         opSourceOver,
		widthScale: 1,
		lineCap:    gg.LineCapRound,
		pressure:   true,
	},
	// Slightly thinner than nominal, grain-textured rather than flat.
	ink.ToolPencil: {
		op:         opSourceOver,
		widthScale: 0.9,
		minWidth:   0.8,
		lineCap:    gg.LineCapRound,
		grain:      true,
	},
	// Wide translucent band; butt caps keep the ends from bulging.
	ink.ToolHighlighter: {
		op:         opMultiply,
		widthScale: 6,
		alpha:      0.3,
		lineCap:    gg.LineCapButt,
	},
	// Removes pixels instead of painting; wider than nominal so erasing
	// feels usable.
	ink.ToolEraser: {
		op:         opDestinationOut,
		widthScale: 4,
		lineCap:    gg.LineCapRound,
	},
}

func styleFor(t ink.Tool) toolStyle {
	if int(t) >= 0 && int(t) < len(toolStyles) {
		return toolStyles[t]
	}
	return toolStyles[ink.ToolPen]
}

// width returns the effective uniform line width for a stroke under this
// style (pressure-modulated tools compute widths per segment instead).
func (st toolStyle) width(base float64) float64 {
	w := base * st.widthScale
	if st.minWidth > 0 && w < st.minWidth {
		w = st.minWidth
	}
	return w
}
