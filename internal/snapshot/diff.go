package snapshot

import (
	"image"
	"image/color"
)

// Diff returns the bounding box of pixels that differ between a and b, in
// zero-origin coordinates. Images of different sizes differ everywhere,
// so the union of both sizes is returned. Colors are compared as
// non-premultiplied RGBA and all fully transparent pixels are equal.
func Diff(a, b image.Image) image.Rectangle {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Size() != bb.Size() {
		return image.Rectangle{Max: ab.Size()}.Union(image.Rectangle{Max: bb.Size()})
	}

	var box image.Rectangle
	w, h := ab.Dx(), ab.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if equal(pixel(a, ab.Min.X+x, ab.Min.Y+y), pixel(b, bb.Min.X+x, bb.Min.Y+y)) {
				continue
			}
			box = box.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return box
}

// Changed reports whether next differs from latest. A missing latest
// snapshot always counts as a change.
func Changed(latest, next image.Image) bool {
	if latest == nil {
		return true
	}
	if p, ok := latest.(*image.Paletted); ok && p == nil {
		return true
	}
	return !Diff(latest, next).Empty()
}

func pixel(img image.Image, x, y int) color.NRGBA {
	switch m := img.(type) {
	case *image.NRGBA:
		return m.NRGBAAt(x, y)
	case *image.Paletted:
		if len(m.Palette) == 0 {
			return color.NRGBA{}
		}
		idx := int(m.ColorIndexAt(x, y))
		if idx >= len(m.Palette) {
			return color.NRGBA{}
		}
		return color.NRGBAModel.Convert(m.Palette[idx]).(color.NRGBA)
	}
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func equal(a, b color.NRGBA) bool {
	if a.A == 0 && b.A == 0 {
		return true
	}
	return a == b
}
