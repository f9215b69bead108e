package imagery

import (
	"image"
	"image/draw"
	"sort"

	"tile-timelapse/internal/common"
	"tile-timelapse/internal/region"
)

// NewCanvas allocates the full, fully transparent grid canvas of a region
func NewCanvas(r region.Region) *image.NRGBA {
	return image.NewNRGBA(r.CanvasRect())
}

// Paste copies the tile's pixels with non-zero alpha onto the canvas at the
// tile's grid offset. Fully transparent source pixels leave the canvas as is,
// and a missing tile contributes nothing.
func Paste(canvas *image.NRGBA, r region.Region, tile TileImage) {
	if tile.Missing() {
		return
	}
	src := tile.Image
	sb := src.Bounds()
	offset := r.TileOffset(tile.Coord)
	dst := image.Rectangle{Min: offset, Max: offset.Add(sb.Size())}.Intersect(canvas.Bounds())
	if dst.Empty() {
		return
	}

	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		srcRow := src.PixOffset(sb.Min.X+dst.Min.X-offset.X, sb.Min.Y+y-offset.Y)
		dstRow := canvas.PixOffset(dst.Min.X, y)
		for x := 0; x < dst.Dx(); x++ {
			s := src.Pix[srcRow+x*4 : srcRow+x*4+4 : srcRow+x*4+4]
			if s[3] == 0 {
				continue
			}
			copy(canvas.Pix[dstRow+x*4:dstRow+x*4+4], s)
		}
	}
}

// Composite pastes every present tile onto a fresh canvas and crops it to the
// region's pixel rectangle. The result does not depend on the order tiles
// resolved in.
func Composite(r region.Region, set TileSet) *image.NRGBA {
	canvas := NewCanvas(r)

	coords := make([]common.TileCoord, 0, len(set))
	for c := range set {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Y < coords[j].Y
	})

	for _, c := range coords {
		if !r.Bounds().Contains(c) {
			continue
		}
		Paste(canvas, r, set[c])
	}
	return Crop(canvas, r.CropRect())
}

// Crop copies rect out of img into a new zero-origin image
func Crop(img *image.NRGBA, rect image.Rectangle) *image.NRGBA {
	rect = rect.Intersect(img.Bounds())
	out := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}
