package render

import (
	"fmt"
	"image"
	"log/slog"
	"strconv"

	"github.com/gogpu/gg"

	"KhataPad/internal/geom"
	"KhataPad/internal/ink"
)

// patternKey caches one grain pattern per (color, opacity) pair.
type patternKey struct {
	color   string
	opacity float64
}

// Raster renders the ink layer of one drawing surface. The backing store
// is held at devicePixelRatio times the logical size; stroke coordinates
// arrive in logical pixels and are scaled on the way in.
//
// Raster implements ink.Renderer. It is driven from the event loop only.
type Raster struct {
	log *slog.Logger

	width  int // logical
	height int
	dpr    float64

	ink      *image.NRGBA // device pixels, straight alpha
	scratch  *gg.Context  // per-flush rasterization layer, device pixels
	patterns map[patternKey]gg.CustomBrush
}

// NewRaster allocates a renderer for a logical width x height surface at
// the given device pixel ratio. A nil logger keeps it silent.
func NewRaster(width, height int, dpr float64, log *slog.Logger) *Raster {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := &Raster{log: log, patterns: make(map[patternKey]gg.CustomBrush)}
	r.Resize(width, height, dpr)
	return r
}

// Resize rescales the backing store. The old bitmap is discarded, so the
// caller must redraw the full stroke collection afterwards.
func (r *Raster) Resize(width, height int, dpr float64) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if dpr <= 0 {
		dpr = 1
	}
	r.width, r.height, r.dpr = width, height, dpr
	dw, dh := int(float64(width)*dpr+0.5), int(float64(height)*dpr+0.5)
	r.ink = image.NewNRGBA(image.Rect(0, 0, dw, dh))
	r.scratch = gg.NewContext(dw, dh)
}

// Size returns the logical surface size.
func (r *Raster) Size() (width, height int) { return r.width, r.height }

// DPR returns the device pixel ratio of the backing store.
func (r *Raster) DPR() float64 { return r.dpr }

// Image returns the live ink layer. The surface composites it over the
// externally painted background/template layer.
func (r *Raster) Image() image.Image { return r.ink }

// Snapshot returns a copy of the ink layer, e.g. for the recognizer or
// the print exporter.
func (r *Raster) Snapshot() *image.NRGBA {
	out := image.NewNRGBA(r.ink.Bounds())
	copy(out.Pix, r.ink.Pix)
	return out
}

// Clear empties the ink layer. The background layer is not touched.
func (r *Raster) Clear() {
	for i := range r.ink.Pix {
		r.ink.Pix[i] = 0
	}
}

// RedrawAll clears the ink layer and repaints the whole collection in
// commit order.
func (r *Raster) RedrawAll(strokes []*ink.Stroke) {
	r.Clear()
	for _, s := range strokes {
		r.DrawStrokeFrom(s, 0)
	}
}

// DrawStrokeFrom paints stroke segments starting at point index from,
// rasterizing into the scratch layer and compositing the dirty region
// with the tool's blend rule. from is the last index already on screen.
func (r *Raster) DrawStrokeFrom(s *ink.Stroke, from int) {
	if len(s.Points) < 2 || from >= len(s.Points)-1 {
		return
	}
	if from < 0 {
		from = 0
	}
	st := styleFor(s.Tool)

	r.scratch.Clear()
	r.scratch.ClearPath()
	r.scratch.SetLineCap(st.lineCap)
	r.scratch.SetLineJoin(gg.LineJoinRound)
	if err := r.strokePath(s, from, st); err != nil {
		// Fatal to this frame's paint only; later frames repaint.
		r.log.Warn("stroke rasterization failed", slog.String("id", s.ID), slog.Any("err", err))
		return
	}

	rect := r.dirtyRect(s, from, st)
	src, ok := r.scratch.Image().(*image.RGBA)
	if !ok {
		r.log.Warn("scratch layer unavailable")
		return
	}
	compositeRegion(r.ink, src.Pix, src.Stride, rect, st.op, r.strokeAlpha(s, st))
}

// strokeAlpha picks the composite opacity: the style's fixed alpha when
// set (highlighter), the stroke's own opacity otherwise. The pencil folds
// opacity into its pattern, and erasing is opacity-independent.
func (r *Raster) strokeAlpha(s *ink.Stroke, st toolStyle) float64 {
	if st.op == opDestinationOut {
		return 1
	}
	if st.alpha > 0 {
		return st.alpha
	}
	if st.grain {
		return 1
	}
	if s.Opacity > 0 && s.Opacity < 1 {
		return s.Opacity
	}
	return 1
}

// strokePath rasterizes the delta onto the scratch layer.
func (r *Raster) strokePath(s *ink.Stroke, from int, st toolStyle) error {
	cr, cg, cb, err := parseHex(s.Color)
	if err != nil {
		// An unparseable color falls back to ink-black rather than
		// dropping the stroke.
		r.log.Warn("bad stroke color", slog.String("color", s.Color), slog.String("id", s.ID))
		cr, cg, cb = 0.1, 0.1, 0.18
	}
	if st.grain {
		r.scratch.SetStrokeBrush(r.grainBrush(s.Color, s.Opacity, cr, cg, cb))
	} else {
		r.scratch.SetStrokeBrush(gg.Solid(gg.RGBA{R: cr, G: cg, B: cb, A: 1}))
	}

	pts := s.Points
	if st.pressure {
		// Per-segment widths: each quadratic midpoint segment is stroked
		// on its own so pressure can vary along the stroke; round caps
		// hide the joins.
		for i := from + 1; i < len(pts); i++ {
			w := geom.PressureWidth(s.BaseWidth*st.widthScale, pts[i].Pressure)
			r.scratch.SetLineWidth(w * r.dpr)
			r.scratch.ClearPath()
			// The first segment of a delta resumes at the point the
			// previous flush ended on, not at the midpoint, so flush
			// boundaries leave no unstroked sliver.
			r.segmentPath(pts, i, i == from+1)
			if err := r.scratch.Stroke(); err != nil {
				return fmt.Errorf("stroke segment %d: %w", i, err)
			}
		}
		return nil
	}

	r.scratch.SetLineWidth(st.width(s.BaseWidth) * r.dpr)
	r.scratch.ClearPath()
	start := from
	if start > 0 {
		m := geom.Midpoint(pts[start-1].Pos(), pts[start].Pos())
		r.moveTo(m)
	} else {
		r.moveTo(pts[0].Pos())
		start = 1
	}
	for i := start; i < len(pts)-1; i++ {
		m := geom.Midpoint(pts[i].Pos(), pts[i+1].Pos())
		r.quadTo(pts[i].Pos(), m)
	}
	r.lineTo(pts[len(pts)-1].Pos()) // tail degrades to a straight line
	if err := r.scratch.Stroke(); err != nil {
		return fmt.Errorf("stroke path: %w", err)
	}
	return nil
}

// segmentPath builds the quadratic midpoint path for the single segment
// ending at index i. resume starts the segment at the previous raw
// sample instead of the midpoint: the stroke head and the first segment
// after a flush boundary both anchor there.
func (r *Raster) segmentPath(pts []ink.StrokePoint, i int, resume bool) {
	prev := pts[i-1].Pos()
	cur := pts[i].Pos()
	if i+1 < len(pts) {
		start, ctrl, end := geom.QuadSegment(prev, cur, pts[i+1].Pos())
		if resume {
			start = prev
		}
		r.moveTo(start)
		r.quadTo(ctrl, end)
		return
	}
	// No lookahead at the stroke tail: straight line to the last sample.
	start := geom.Midpoint(prev, cur)
	if resume {
		start = prev
	}
	r.moveTo(start)
	r.lineTo(cur)
}

func (r *Raster) moveTo(p geom.Point) { r.scratch.MoveTo(p.X*r.dpr, p.Y*r.dpr) }
func (r *Raster) lineTo(p geom.Point) { r.scratch.LineTo(p.X*r.dpr, p.Y*r.dpr) }

func (r *Raster) quadTo(ctrl, end geom.Point) {
	r.scratch.QuadraticTo(ctrl.X*r.dpr, ctrl.Y*r.dpr, end.X*r.dpr, end.Y*r.dpr)
}

// dirtyRect is the device-space region touched by this delta, padded by
// the line width.
func (r *Raster) dirtyRect(s *ink.Stroke, from int, st toolStyle) image.Rectangle {
	lo := from - 1
	if lo < 0 {
		lo = 0
	}
	pts := make([]geom.Point, 0, len(s.Points)-lo)
	for _, p := range s.Points[lo:] {
		pts = append(pts, p.Pos())
	}
	pad := st.width(s.BaseWidth)/2 + 2
	if st.pressure {
		pad = s.BaseWidth*st.widthScale*1.3/2 + 2
	}
	b := geom.BoundsOf(pts).Expand(pad)
	return image.Rect(
		int(b.MinX*r.dpr)-1, int(b.MinY*r.dpr)-1,
		int(b.MaxX*r.dpr)+2, int(b.MaxY*r.dpr)+2,
	)
}

// grainBrush returns the cached grain pattern for a pencil color. The
// texture is a deterministic per-pixel hash modulating alpha, so the same
// (color, opacity) pair always yields the same pattern.
func (r *Raster) grainBrush(key string, opacity float64, cr, cg, cb float64) gg.CustomBrush {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	k := patternKey{color: key, opacity: opacity}
	if b, ok := r.patterns[k]; ok {
		return b
	}
	b := gg.NewCustomBrush(func(x, y float64) gg.RGBA {
		n := grainNoise(int(x), int(y))
		return gg.RGBA{R: cr, G: cg, B: cb, A: opacity * (0.55 + 0.45*n)}
	})
	r.patterns[k] = b
	return b
}

// grainNoise hashes a pixel position to [0,1).
func grainNoise(x, y int) float64 {
	h := uint32(x)*374761393 + uint32(y)*668265263
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h&0xff) / 256
}

// parseHex parses #rgb or #rrggbb into [0,1] channels.
func parseHex(s string) (r, g, b float64, err error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return 0, 0, 0, fmt.Errorf("hex color %q: bad length", s)
	}
	v, perr := strconv.ParseUint(s, 16, 32)
	if perr != nil {
		return 0, 0, 0, fmt.Errorf("hex color %q: %w", s, perr)
	}
	r = float64(v>>16&0xff) / 255
	g = float64(v>>8&0xff) / 255
	b = float64(v&0xff) / 255
	return r, g, b, nil
}
