package export

import (
	"image"
	"image/color"
	"image/draw"
)

// Flatten composites a (possibly transparent) ink layer over white paper.
// Printed pages have no alpha channel to hide behind.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
