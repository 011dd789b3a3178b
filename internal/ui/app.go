package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"

	"KhataPad/internal/export"
	"KhataPad/internal/ink"
	"KhataPad/internal/palm"
)

// Shell is the assembled application window plus the surface it hosts.
type Shell struct {
	App     fyne.App
	Window  fyne.Window
	Surface *Surface
}

// NewShell builds the window and the drawing surface. The caller wires
// persistence and sync to Surface.Engine() before calling Run.
func NewShell(palmCfg palm.Config, log *slog.Logger) *Shell {
	a := app.New()
	w := a.NewWindow("KhataPad")
	w.Resize(fyne.NewSize(1024, 768))

	surface := NewSurface(palmCfg, log)
	return &Shell{App: a, Window: w, Surface: surface}
}

// Run lays out the toolbar over the surface and blocks until the window
// closes. doc may be nil when running without persistence.
func (sh *Shell) Run(doc *ink.Document) {
	engine := sh.Surface.Engine()

	toolbar := NewToolbar(engine, ToolbarActions{
		OnClear:  engine.ClearCanvas,
		OnExport: func() { sh.exportPDF(doc) },
	})

	sh.Window.SetContent(container.NewBorder(toolbar, nil, nil, nil, sh.Surface))
	sh.Window.SetOnClosed(sh.Surface.Dispose)
	sh.Window.ShowAndRun()
}

// exportPDF prompts for a target file and writes the current page as a
// raster A4 PDF.
func (sh *Shell) exportPDF(doc *ink.Document) {
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, sh.Window)
			return
		}
		if writer == nil {
			return // cancelled
		}
		path := writer.URI().Path()
		writer.Close() // gofpdf writes by path

		label := ""
		if doc != nil {
			label = doc.PageID()
		}
		page := export.Page{Label: label, Image: export.Flatten(sh.Surface.Snapshot())}
		if err := export.WritePDF(path, []export.Page{page}); err != nil {
			dialog.ShowError(err, sh.Window)
			return
		}
	}, sh.Window)
}
