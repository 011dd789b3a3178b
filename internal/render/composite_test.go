package render

import (
	"image"
	"testing"
)

// solidNRGBA fills a canvas with one straight-alpha color.
func solidNRGBA(w, h int, r, g, b, a uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, a
	}
	return img
}

// solidSrc builds a scratch buffer of the same size and color.
func solidSrc(w, h int, r, g, b, a uint8) ([]uint8, int) {
	img := solidNRGBA(w, h, r, g, b, a)
	return img.Pix, img.Stride
}

func TestCompositeSourceOver(t *testing.T) {
	dst := solidNRGBA(4, 4, 0, 0, 0, 0)
	src, stride := solidSrc(4, 4, 255, 0, 0, 255)

	compositeRegion(dst, src, stride, image.Rect(0, 0, 4, 4), opSourceOver, 1)

	c := dst.NRGBAAt(1, 1)
	if c.R != 255 || c.A != 255 {
		t.Errorf("opaque red over transparent = %+v", c)
	}
}

func TestCompositeSourceOverOpacity(t *testing.T) {
	dst := solidNRGBA(4, 4, 0, 0, 0, 0)
	src, stride := solidSrc(4, 4, 255, 0, 0, 255)

	compositeRegion(dst, src, stride, image.Rect(0, 0, 4, 4), opSourceOver, 0.3)

	c := dst.NRGBAAt(1, 1)
	if c.A < 70 || c.A > 82 {
		t.Errorf("30%% red should land near alpha 76, got %d", c.A)
	}
	if c.R != 255 {
		t.Errorf("straight alpha must keep the color channel, got r=%d", c.R)
	}
}

func TestCompositeMultiplyOnTransparentDepositsColor(t *testing.T) {
	// A translucent band over blank paper must show its own color, not
	// darken the (absent) destination to black.
	dst := solidNRGBA(4, 4, 0, 0, 0, 0)
	src, stride := solidSrc(4, 4, 255, 230, 0, 255)

	compositeRegion(dst, src, stride, image.Rect(0, 0, 4, 4), opMultiply, 0.3)

	c := dst.NRGBAAt(2, 2)
	if c.A == 0 {
		t.Fatal("multiply over transparent deposited nothing")
	}
	if c.R < 250 || c.G < 220 || c.B > 10 {
		t.Errorf("expected the band's own yellow, got %+v", c)
	}
}

func TestCompositeMultiplyDarkensInk(t *testing.T) {
	// Yellow over opaque blue ink multiplies the channels: blue has no
	// red/green to pass through, so the overlap goes dark.
	dst := solidNRGBA(4, 4, 40, 40, 200, 255)
	src, stride := solidSrc(4, 4, 255, 230, 0, 255)

	compositeRegion(dst, src, stride, image.Rect(0, 0, 4, 4), opMultiply, 1)

	c := dst.NRGBAAt(2, 2)
	if c.B >= 200 {
		t.Errorf("multiply should cut the blue channel, got %+v", c)
	}
	if c.A != 255 {
		t.Errorf("opaque dst stays opaque, got a=%d", c.A)
	}
}

func TestCompositeDestinationOut(t *testing.T) {
	dst := solidNRGBA(4, 4, 10, 10, 10, 255)
	src, stride := solidSrc(4, 4, 0, 0, 0, 255)

	compositeRegion(dst, src, stride, image.Rect(0, 0, 4, 4), opDestinationOut, 1)

	if a := dst.NRGBAAt(1, 1).A; a != 0 {
		t.Errorf("full-alpha erase should clear the pixel, got a=%d", a)
	}

	dst2 := solidNRGBA(4, 4, 10, 10, 10, 255)
	src2, stride2 := solidSrc(4, 4, 0, 0, 0, 128)
	compositeRegion(dst2, src2, stride2, image.Rect(0, 0, 4, 4), opDestinationOut, 1)
	if a := dst2.NRGBAAt(1, 1).A; a < 120 || a > 135 {
		t.Errorf("half-alpha erase should leave roughly half, got a=%d", a)
	}
}

func TestCompositeRectClipped(t *testing.T) {
	dst := solidNRGBA(4, 4, 0, 0, 0, 0)
	src, stride := solidSrc(4, 4, 255, 0, 0, 255)

	// Must not panic or write out of bounds.
	compositeRegion(dst, src, stride, image.Rect(-10, -10, 100, 100), opSourceOver, 1)
	compositeRegion(dst, src, stride, image.Rect(50, 50, 60, 60), opSourceOver, 1)

	if dst.NRGBAAt(3, 3).A != 255 {
		t.Error("in-bounds portion of an oversized rect should still paint")
	}
}
