package ink

import (
	"log/slog"
	"math"

	"KhataPad/internal/geom"
	"KhataPad/internal/history"
)

// Renderer is the surface the engine paints through. The engine only
// marks work (a stroke dirty from its last drawn index, or a full
// redraw); the renderer owns the pixels and the compositing rules.
type Renderer interface {
	// DrawStrokeFrom paints stroke segments starting at point index from
	// (the last index already on screen). from is 0 for a fresh stroke.
	DrawStrokeFrom(s *Stroke, from int)
	// RedrawAll clears the ink layer and repaints the whole collection.
	// The background/template layer is not the renderer's to touch.
	RedrawAll(strokes []*Stroke)
}

// captureState is the engine's per-stroke state machine.
type captureState int

const (
	stateIdle captureState = iota
	stateCapturing
	stateCommitting
)

// Engine captures and smooths the in-progress stroke and owns the
// committed stroke collection of the current page. It is single-goroutine
// by contract: the pointer gateway, frame callbacks, and history all run
// on the event loop, so there is no internal lock.
type Engine struct {
	log      *slog.Logger
	renderer Renderer
	sched    FrameScheduler
	hist     *history.Stack

	// current tool settings applied to the next BeginStroke
	tool      Tool
	color     string
	baseWidth float64
	opacity   float64

	strokes []*Stroke

	state       captureState
	active      *Stroke
	lastDrawn   int // highest point index already flushed to the renderer
	flushQueued bool

	// onCommit fires after a stroke lands in the collection; persistence
	// and sync hang off it, fire-and-forget.
	onCommit func(*Stroke)
	// onClear fires after a clear command empties the collection.
	onClear func()
}

// NewEngine creates a capture engine drawing through renderer and
// batching flushes on sched. A nil logger keeps the engine silent.
func NewEngine(renderer Renderer, sched FrameScheduler, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		log:       log,
		renderer:  renderer,
		sched:     sched,
		hist:      history.NewStack(history.DefaultLimit),
		tool:      ToolPen,
		color:     "#1a1a2e",
		baseWidth: 3,
		opacity:   1,
	}
}

// SetTool selects the tool for subsequent strokes.
func (e *Engine) SetTool(t Tool) { e.tool = t }

// Tool returns the currently selected tool.
func (e *Engine) Tool() Tool { return e.tool }

// SetColor sets the hex color for subsequent strokes.
func (e *Engine) SetColor(hex string) { e.color = hex }

// SetBaseWidth sets the nominal stroke width for subsequent strokes.
func (e *Engine) SetBaseWidth(w float64) {
	if w > 0 {
		e.baseWidth = w
	}
}

// SetOpacity sets the stroke opacity for subsequent strokes, clamped to
// [0,1].
func (e *Engine) SetOpacity(o float64) {
	e.opacity = math.Max(0, math.Min(1, o))
}

// SetCommitHook registers the collaborator notified of committed strokes.
func (e *Engine) SetCommitHook(fn func(*Stroke)) { e.onCommit = fn }

// SetClearHook registers the collaborator notified when the page is
// cleared.
func (e *Engine) SetClearHook(fn func()) { e.onClear = fn }

// History exposes the undo/redo stack (the toolbar binds to it).
func (e *Engine) History() *history.Stack { return e.hist }

// Strokes returns the committed collection. The caller must treat the
// strokes as immutable.
func (e *Engine) Strokes() []*Stroke {
	out := make([]*Stroke, len(e.strokes))
	copy(out, e.strokes)
	return out
}

// Capturing reports whether a stroke is in progress.
func (e *Engine) Capturing() bool { return e.state == stateCapturing }

// BeginStroke starts a new stroke at p using the current tool settings.
// Ignored unless the engine is idle.
func (e *Engine) BeginStroke(p StrokePoint) {
	if e.state != stateIdle {
		return
	}
	s := NewStroke(e.tool, e.color, e.baseWidth, e.opacity)
	s.Points = append(s.Points, sanitize(p, nil))
	e.active = s
	e.state = stateCapturing
	e.lastDrawn = 0
	e.log.Debug("stroke begun", slog.String("id", s.ID), slog.String("tool", s.Tool.String()))
}

// ExtendStroke appends a sample to the active stroke. Fast movements are
// interpolated, the incoming point is blended with the rolling tail, and
// a redraw is batched onto the next frame.
func (e *Engine) ExtendStroke(p StrokePoint) {
	if e.state != stateCapturing {
		return
	}
	s := e.active
	last := s.Points[len(s.Points)-1]
	p = sanitize(p, &last)
	if p.X == last.X && p.Y == last.Y {
		return // duplicate sample, nothing to draw
	}

	s.Points = append(s.Points, interpolate(last, p)...)
	tailFrom := len(s.Points) - 2
	if tailFrom < 0 {
		tailFrom = 0
	}
	s.Points = append(s.Points, rollingSmooth(s.Points[tailFrom:], p))

	e.scheduleFlush()
}

// EndStroke finishes the active stroke: a final smoothing pass over the
// entire point sequence, a full redraw with the smoothed points, and an
// add-stroke command pushed to history. A stroke with fewer than two
// points is discarded silently.
func (e *Engine) EndStroke() {
	if e.state != stateCapturing {
		return
	}
	e.state = stateCommitting
	s := e.active
	e.active = nil
	e.sched.Cancel()
	e.flushQueued = false

	if len(s.Points) < 2 {
		// A single sample never reached the renderer; just forget it.
		e.state = stateIdle
		return
	}

	s.Points = finalSmooth(s.Points)
	e.pushAddStroke(s)
	e.state = stateIdle

	if e.onCommit != nil {
		e.onCommit(s)
	}
}

// CancelStroke abandons the active stroke without committing it, e.g.
// when the surface is torn down mid-stroke.
func (e *Engine) CancelStroke() {
	if e.state != stateCapturing {
		return
	}
	e.sched.Cancel()
	e.flushQueued = false
	e.active = nil
	e.state = stateIdle
	e.renderer.RedrawAll(e.strokes)
}

// ClearCanvas empties the stroke collection through a reversible command,
// keeping the background/template layer intact.
func (e *Engine) ClearCanvas() {
	if len(e.strokes) == 0 && e.state == stateIdle {
		return
	}
	e.CancelStroke()

	prev := e.strokes
	e.hist.Push(history.Func{
		Tag: "clear",
		DoFn: func() {
			e.strokes = nil
			e.renderer.RedrawAll(nil)
		},
		UndoFn: func() {
			e.strokes = prev
			e.renderer.RedrawAll(e.strokes)
		},
	})
	if e.onClear != nil {
		e.onClear()
	}
}

// Undo reverses the last committed mutation.
func (e *Engine) Undo() { e.hist.Undo() }

// Redo re-applies the last undone mutation.
func (e *Engine) Redo() { e.hist.Redo() }

// RemoveStroke deletes a committed stroke through a reversible command.
// Used by the object eraser; a no-op when the id is unknown.
func (e *Engine) RemoveStroke(id string) {
	idx := -1
	for i, s := range e.strokes {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	removed := e.strokes[idx]
	e.hist.Push(history.Func{
		Tag: "remove-stroke",
		DoFn: func() {
			out := make([]*Stroke, 0, len(e.strokes)-1)
			for _, s := range e.strokes {
				if s.ID != removed.ID {
					out = append(out, s)
				}
			}
			e.strokes = out
			e.renderer.RedrawAll(e.strokes)
		},
		UndoFn: func() {
			e.strokes = append(e.strokes, removed)
			e.renderer.RedrawAll(e.strokes)
		},
	})
}

// AddRemote inserts an externally produced stroke into the collection
// without touching history: a peer's edits are not locally undoable.
func (e *Engine) AddRemote(s *Stroke) {
	if s == nil || len(s.Points) < 2 {
		return
	}
	e.strokes = append(e.strokes, s)
	e.renderer.DrawStrokeFrom(s, 0)
}

// StrokeAt returns the topmost committed stroke within threshold of p, or
// nil. Supports the object eraser.
func (e *Engine) StrokeAt(p geom.Point, threshold float64) *Stroke {
	for i := len(e.strokes) - 1; i >= 0; i-- {
		if IsPointNearStroke(p, e.strokes[i], threshold) {
			return e.strokes[i]
		}
	}
	return nil
}

// ResetPage swaps in a loaded stroke collection and clears history. Used
// when switching pages; history is never shared across pages.
func (e *Engine) ResetPage(strokes []*Stroke) {
	e.CancelStroke()
	e.hist.Clear()
	e.strokes = strokes
	e.renderer.RedrawAll(e.strokes)
}

// Redraw repaints the whole collection; the surface calls this after a
// resize invalidates the backing store.
func (e *Engine) Redraw() {
	e.renderer.RedrawAll(e.strokes)
}

// Dispose cancels any scheduled frame and abandons in-flight state. The
// owning surface calls this on teardown.
func (e *Engine) Dispose() {
	e.sched.Cancel()
	e.flushQueued = false
	e.active = nil
	e.state = stateIdle
}

func (e *Engine) pushAddStroke(s *Stroke) {
	e.hist.Push(history.Func{
		Tag: "add-stroke",
		DoFn: func() {
			e.strokes = append(e.strokes, s)
			e.renderer.RedrawAll(e.strokes)
		},
		UndoFn: func() {
			out := make([]*Stroke, 0, len(e.strokes)-1)
			for _, cur := range e.strokes {
				if cur.ID != s.ID {
					out = append(out, cur)
				}
			}
			e.strokes = out
			e.renderer.RedrawAll(e.strokes)
		},
	})
}

func (e *Engine) scheduleFlush() {
	if e.flushQueued {
		return
	}
	e.flushQueued = true
	e.sched.Request(e.flush)
}

func (e *Engine) flush() {
	e.flushQueued = false
	if e.state != stateCapturing || e.active == nil {
		return
	}
	s := e.active
	if e.lastDrawn >= len(s.Points)-1 {
		return
	}
	e.renderer.DrawStrokeFrom(s, e.lastDrawn)
	e.lastDrawn = len(s.Points) - 1
}

// sanitize makes a sample safe to record: NaN/Inf coordinates snap to the
// previous sample, pressure is forced into (0,1], and the timestamp is
// nudged forward so the monotonic invariant holds even when the platform
// reports equal or backwards times.
func sanitize(p StrokePoint, prev *StrokePoint) StrokePoint {
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) {
		if prev != nil {
			p.X = prev.X
		} else {
			p.X = 0
		}
	}
	if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		if prev != nil {
			p.Y = prev.Y
		} else {
			p.Y = 0
		}
	}
	if math.IsNaN(p.Pressure) || p.Pressure <= 0 {
		p.Pressure = 0.5
	}
	if p.Pressure > 1 {
		p.Pressure = 1
	}
	if prev != nil && p.Timestamp <= prev.Timestamp {
		p.Timestamp = prev.Timestamp + 0.001
	}
	return p
}
