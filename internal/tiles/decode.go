package tiles

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// Tile servers occasionally hand out other raster formats
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode decodes raw tile bytes into an NRGBA buffer and checks that the
// tile has the expected square size.
func Decode(data []byte, tileSize int) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty tile body")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode tile: %w", err)
	}

	b := img.Bounds()
	if tileSize > 0 && (b.Dx() != tileSize || b.Dy() != tileSize) {
		return nil, fmt.Errorf("%s tile is %dx%d, expected %dx%d", format, b.Dx(), b.Dy(), tileSize, tileSize)
	}

	if nrgba, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return nrgba, nil
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out, nil
}
