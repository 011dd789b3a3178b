package render

import "image"

// compositeRegion blends the scratch layer into the ink layer across rect.
// Both buffers hold straight (non-premultiplied) RGBA bytes: the ink layer
// is an *image.NRGBA, and gg pixmaps store straight alpha, so the scratch
// Pix is read the same way. opacity scales the source alpha.
//
// The multiply rule follows the canvas compositing model: the source color
// is mixed towards src*dst in proportion to the destination alpha, then
// composited source-over. Where the ink layer is still transparent the
// highlighter therefore deposits its own color instead of darkening
// nothing.
func compositeRegion(dst *image.NRGBA, src []uint8, srcStride int, rect image.Rectangle, op compositeOp, opacity float64) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		d := dst.Pix[y*dst.Stride+rect.Min.X*4:]
		s := src[y*srcStride+rect.Min.X*4:]
		for x := 0; x < rect.Dx(); x++ {
			si := x * 4
			sa := float64(s[si+3]) / 255 * opacity
			if sa == 0 {
				continue
			}
			sr := float64(s[si+0]) / 255
			sg := float64(s[si+1]) / 255
			sb := float64(s[si+2]) / 255

			di := x * 4
			da := float64(d[di+3]) / 255

			switch op {
			case opDestinationOut:
				d[di+3] = clamp8(da * (1 - sa))
				continue
			case opMultiply:
				if da > 0 {
					dr := float64(d[di+0]) / 255
					dg := float64(d[di+1]) / 255
					db := float64(d[di+2]) / 255
					sr = (1-da)*sr + da*(sr*dr)
					sg = (1-da)*sg + da*(sg*dg)
					sb = (1-da)*sb + da*(sb*db)
				}
			}

			// Source-over with straight alpha.
			outA := sa + da*(1-sa)
			if outA == 0 {
				d[di+0], d[di+1], d[di+2], d[di+3] = 0, 0, 0, 0
				continue
			}
			dr := float64(d[di+0]) / 255
			dg := float64(d[di+1]) / 255
			db := float64(d[di+2]) / 255
			d[di+0] = clamp8((sr*sa + dr*da*(1-sa)) / outA)
			d[di+1] = clamp8((sg*sa + dg*da*(1-sa)) / outA)
			d[di+2] = clamp8((sb*sa + db*da*(1-sa)) / outA)
			d[di+3] = clamp8(outA)
		}
	}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
