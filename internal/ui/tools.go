package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"KhataPad/internal/ink"
)

// inkPalette is the fixed swatch set. Hex strings feed straight into the
// stroke model.
var inkPalette = []string{
	"#1a1a2e", // ink black
	"#c0392b", // red
	"#27ae60", // green
	"#2962ff", // blue
	"#ffe600", // highlighter yellow
}

// ToolbarActions are the window-level operations the toolbar triggers.
type ToolbarActions struct {
	OnClear  func()
	OnExport func()
}

// colorSwatch is a tappable color square.
type colorSwatch struct {
	widget.BaseWidget
	hex      string
	onTapped func(hex string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{hex: hex, onTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(parseSwatchColor(s.hex))
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.onTapped != nil {
		s.onTapped(s.hex)
	}
}

func parseSwatchColor(hex string) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.Black
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// NewToolbar assembles the tool strip bound to an engine: tool selection,
// color swatches, width slider, undo/redo, clear, and export.
func NewToolbar(engine *ink.Engine, actions ToolbarActions) fyne.CanvasObject {
	tools := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			engine.SetTool(ink.ToolPen)
		}),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), func() {
			engine.SetTool(ink.ToolPencil)
		}),
		widget.NewToolbarAction(theme.ContentCopyIcon(), func() {
			engine.SetTool(ink.ToolHighlighter)
		}),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			engine.SetTool(ink.ToolEraser)
		}),
	)

	colorBox := container.NewHBox()
	for _, hex := range inkPalette {
		colorBox.Add(newColorSwatch(hex, engine.SetColor))
	}

	widthSlider := widget.NewSlider(1, 12)
	widthSlider.SetValue(3)
	widthSlider.OnChanged = func(v float64) { engine.SetBaseWidth(v) }
	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), widthSlider)

	history := widget.NewToolbar(
		widget.NewToolbarAction(theme.NavigateBackIcon(), engine.Undo),
		widget.NewToolbarAction(theme.NavigateNextIcon(), engine.Redo),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			if actions.OnClear != nil {
				actions.OnClear()
			} else {
				engine.ClearCanvas()
			}
		}),
	)

	items := []fyne.CanvasObject{
		widget.NewLabel("Tool:"),
		tools,
		widget.NewSeparator(),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderBox,
		widget.NewSeparator(),
		history,
		layout.NewSpacer(),
	}
	if actions.OnExport != nil {
		items = append(items,
			widget.NewToolbar(widget.NewToolbarAction(theme.DocumentPrintIcon(), actions.OnExport)))
	}
	return container.NewHBox(items...)
}
