// Package export writes pages out for printing. Pages are exported as
// rendered bitmaps, not vector art: the raster is exactly what the user
// saw, tool compositing included.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jung-kurt/gofpdf"
)

// a4 content box in millimeters, portrait, with a printable margin.
const (
	a4WidthMM  = 210.0
	a4HeightMM = 297.0
	marginMM   = 10.0
)

// Page is one exported page image. Label goes into the footer.
type Page struct {
	Label string
	Image image.Image
}

// WritePDF renders the given pages into a portrait A4 PDF at path, one
// page image per PDF page, scaled to fit the content box while keeping
// the aspect ratio.
func WritePDF(path string, pages []Page) error {
	if len(pages) == 0 {
		return fmt.Errorf("export: no pages to write")
	}

	p := gofpdf.New("P", "mm", "A4", "")
	p.SetFont("Helvetica", "", 9)

	for i, page := range pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, page.Image); err != nil {
			return fmt.Errorf("export: encode page %d: %w", i+1, err)
		}

		name := fmt.Sprintf("page-%d", i+1)
		p.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
		if p.Err() {
			return fmt.Errorf("export: embed page %d: %w", i+1, p.Error())
		}

		p.AddPage()
		w, h := fitContentBox(page.Image.Bounds())
		p.ImageOptions(name, marginMM, marginMM, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		if page.Label != "" {
			p.SetXY(marginMM, a4HeightMM-marginMM)
			p.CellFormat(0, 5, page.Label, "", 0, "L", false, 0, "")
		}
	}

	if err := p.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// fitContentBox scales pixel bounds into the A4 content box.
func fitContentBox(b image.Rectangle) (wMM, hMM float64) {
	boxW := a4WidthMM - 2*marginMM
	boxH := a4HeightMM - 2*marginMM
	pw, ph := float64(b.Dx()), float64(b.Dy())
	if pw <= 0 || ph <= 0 {
		return boxW, boxH
	}
	scale := boxW / pw
	if ph*scale > boxH {
		scale = boxH / ph
	}
	return pw * scale, ph * scale
}
