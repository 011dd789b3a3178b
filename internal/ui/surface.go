// Package ui is the Fyne shell around the drawing engine: the surface
// widget that feeds pointer events through palm rejection into stroke
// capture, the toolbar, and the application window.
package ui

import (
	"image"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"KhataPad/internal/clock"
	"KhataPad/internal/ink"
	"KhataPad/internal/input"
	"KhataPad/internal/palm"
	"KhataPad/internal/render"
)

const (
	mousePointerID = 0
	touchPointerID = 1 // Fyne reports a single unnumbered touch stream

	// nominalTouchSize stands in for the contact patch on platforms that
	// do not report one. Small enough to read as a fingertip.
	nominalTouchSize = 12
)

// Surface is the drawing widget. It owns the whole capture pipeline:
// palm engine, input gateway, capture engine, and the raster the ink
// lands on. All engine work runs on the Fyne event loop; timer-driven
// callbacks are trampolined there through fyne.Do.
type Surface struct {
	widget.BaseWidget

	engine  *ink.Engine
	gateway *input.Gateway
	raster  *render.Raster
	pix     *canvas.Raster
	log     *slog.Logger

	start    time.Time
	lastSize fyne.Size

	// dragKind remembers which device started the current press: Fyne
	// delivers drag motion through Dragged regardless of source, and the
	// gateway needs the samples attributed to the pointer that went down.
	dragKind input.Kind
}

var _ fyne.Widget = (*Surface)(nil)
var _ fyne.Draggable = (*Surface)(nil)
var _ desktop.Mouseable = (*Surface)(nil)
var _ mobile.Touchable = (*Surface)(nil)

// NewSurface builds a surface with the given palm tuning. The returned
// widget is ready to place in a window; wire persistence and sync to its
// Engine before showing it.
func NewSurface(palmCfg palm.Config, log *slog.Logger) *Surface {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Surface{
		log:   log,
		start: time.Now(),
	}
	s.raster = render.NewRaster(1, 1, 1, log)
	s.pix = canvas.NewRaster(func(w, h int) image.Image { return s.raster.Image() })

	clk := uiClock{clock.System()}
	sched := &uiScheduler{tick: ink.NewTickScheduler(clock.System(), ink.FrameInterval)}
	s.engine = ink.NewEngine(s, sched, log)
	s.gateway = input.NewGateway(palm.NewEngine(palmCfg, clk, log), s.engine, log)

	s.ExtendBaseWidget(s)
	return s
}

// Engine exposes the capture engine for the toolbar, document, and sync
// wiring.
func (s *Surface) Engine() *ink.Engine { return s.engine }

// Snapshot returns a copy of the current ink layer for export.
func (s *Surface) Snapshot() *image.NRGBA { return s.raster.Snapshot() }

// Dispose tears the pipeline down: pending palm timers, scheduled frames,
// and any in-flight stroke.
func (s *Surface) Dispose() {
	s.gateway.Dispose()
	s.engine.Dispose()
}

// DrawStrokeFrom implements ink.Renderer: paint, then push the fresh
// pixels to the screen.
func (s *Surface) DrawStrokeFrom(st *ink.Stroke, from int) {
	s.raster.DrawStrokeFrom(st, from)
	s.pix.Refresh()
}

// RedrawAll implements ink.Renderer.
func (s *Surface) RedrawAll(strokes []*ink.Stroke) {
	s.raster.RedrawAll(strokes)
	s.pix.Refresh()
}

func (s *Surface) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	s.dragKind = input.KindMouse
	s.gateway.PointerDown(s.mouseEvent(e.Position))
}

func (s *Surface) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	s.gateway.PointerUp(s.mouseEvent(e.Position))
}

func (s *Surface) Dragged(e *fyne.DragEvent) {
	if s.dragKind == input.KindTouch {
		s.gateway.PointerMove(s.touchEvent(e.Position))
		return
	}
	s.gateway.PointerMove(s.mouseEvent(e.Position))
}

func (s *Surface) DragEnd() {}

func (s *Surface) MouseIn(*desktop.MouseEvent)    {}
func (s *Surface) MouseOut()                      {}
func (s *Surface) MouseMoved(*desktop.MouseEvent) {}

func (s *Surface) TouchDown(e *mobile.TouchEvent) {
	s.dragKind = input.KindTouch
	s.gateway.PointerDown(s.touchEvent(e.Position))
}

func (s *Surface) TouchUp(e *mobile.TouchEvent) {
	s.gateway.PointerUp(s.touchEvent(e.Position))
}

func (s *Surface) TouchCancel(e *mobile.TouchEvent) {
	s.gateway.PointerCancel(s.touchEvent(e.Position))
}

func (s *Surface) mouseEvent(pos fyne.Position) input.PointerEvent {
	return input.PointerEvent{
		ID:     mousePointerID,
		Kind:   input.KindMouse,
		X:      float64(pos.X),
		Y:      float64(pos.Y),
		TimeMs: s.nowMs(),
	}
}

func (s *Surface) touchEvent(pos fyne.Position) input.PointerEvent {
	return input.PointerEvent{
		ID:     touchPointerID,
		Kind:   input.KindTouch,
		X:      float64(pos.X),
		Y:      float64(pos.Y),
		Width:  nominalTouchSize,
		Height: nominalTouchSize,
		TimeMs: s.nowMs(),
	}
}

func (s *Surface) nowMs() float64 {
	return float64(time.Since(s.start).Microseconds()) / 1000
}

func (s *Surface) CreateRenderer() fyne.WidgetRenderer {
	return &surfaceRenderer{s: s}
}

// handleResize reallocates the backing store for a new widget size and
// repaints the page into it.
func (s *Surface) handleResize(size fyne.Size) {
	if size == s.lastSize || size.Width <= 0 || size.Height <= 0 {
		return
	}
	s.lastSize = size
	s.raster.Resize(int(size.Width), int(size.Height), s.deviceScale())
	s.gateway.SetSurfaceHeight(float64(size.Height))
	s.engine.Redraw()
}

func (s *Surface) deviceScale() float64 {
	if c := fyne.CurrentApp().Driver().CanvasForObject(s); c != nil {
		return float64(c.Scale())
	}
	return 1
}

type surfaceRenderer struct {
	s *Surface
}

func (r *surfaceRenderer) Layout(size fyne.Size) {
	r.s.pix.Resize(size)
	r.s.handleResize(size)
}

func (r *surfaceRenderer) MinSize() fyne.Size { return fyne.NewSize(300, 300) }

func (r *surfaceRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.s.pix}
}

func (r *surfaceRenderer) Refresh() { r.s.pix.Refresh() }

func (r *surfaceRenderer) Destroy() { r.s.Dispose() }

// uiClock defers timer callbacks onto the Fyne event loop, preserving the
// engine's single-goroutine contract for palm delay verdicts.
type uiClock struct {
	clock.Clock
}

func (c uiClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	return c.Clock.AfterFunc(d, func() { fyne.Do(f) })
}

// uiScheduler does the same for frame flushes.
type uiScheduler struct {
	tick *ink.TickScheduler
}

func (s *uiScheduler) Request(fn func()) {
	s.tick.Request(func() { fyne.Do(fn) })
}

func (s *uiScheduler) Cancel() { s.tick.Cancel() }
