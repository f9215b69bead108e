package imagery

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tile-timelapse/internal/common"
	"tile-timelapse/internal/region"
)

func filled(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func testRegion(t *testing.T) region.Region {
	t.Helper()
	// two tiles wide, crop (1,1)-(7,3)
	r, err := region.FromPoints("test",
		region.Point{TileX: 0, TileY: 0, PixelX: 1, PixelY: 1},
		region.Point{TileX: 1, TileY: 0, PixelX: 2, PixelY: 2},
		4,
	)
	require.NoError(t, err)
	return r
}

func TestComposite_MissingTileLeavesTransparentHole(t *testing.T) {
	r := testRegion(t)
	red := color.NRGBA{R: 255, A: 255}

	set := TileSet{
		{X: 0, Y: 0}: {Coord: common.TileCoord{X: 0, Y: 0}, Image: filled(4, red)},
		{X: 1, Y: 0}: {Coord: common.TileCoord{X: 1, Y: 0}},
	}
	out := Composite(r, set)

	require.Equal(t, image.Rect(0, 0, 6, 2), out.Bounds())
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, red, out.NRGBAAt(x, y), "pixel %d,%d", x, y)
		}
		for x := 3; x < 6; x++ {
			assert.Equal(t, color.NRGBA{}, out.NRGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestComposite_AllTilesMissingIsFullyTransparent(t *testing.T) {
	r := testRegion(t)
	out := Composite(r, TileSet{})
	for _, v := range out.Pix {
		assert.Zero(t, v)
	}
}

func TestPaste_OrderIndependent(t *testing.T) {
	r, err := region.FromPoints("grid",
		region.Point{TileX: 5, TileY: 5},
		region.Point{TileX: 6, TileY: 6, PixelX: 1, PixelY: 1},
		2,
	)
	require.NoError(t, err)

	colors := map[common.TileCoord]color.NRGBA{
		{X: 5, Y: 5}: {R: 10, A: 255},
		{X: 6, Y: 5}: {G: 20, A: 255},
		{X: 5, Y: 6}: {B: 30, A: 255},
		{X: 6, Y: 6}: {R: 40, G: 40, A: 128},
	}
	var tilesInOrder []TileImage
	for _, c := range r.Tiles() {
		tilesInOrder = append(tilesInOrder, TileImage{Coord: c, Image: filled(2, colors[c])})
	}

	forward := NewCanvas(r)
	for _, tile := range tilesInOrder {
		Paste(forward, r, tile)
	}
	backward := NewCanvas(r)
	for i := len(tilesInOrder) - 1; i >= 0; i-- {
		Paste(backward, r, tilesInOrder[i])
	}

	assert.Equal(t, forward.Pix, backward.Pix)
	assert.Equal(t, color.NRGBA{G: 20, A: 255}, forward.NRGBAAt(2, 0))
	assert.Equal(t, color.NRGBA{B: 30, A: 255}, forward.NRGBAAt(0, 3))
	assert.Equal(t, color.NRGBA{R: 40, G: 40, A: 128}, forward.NRGBAAt(3, 3))
}

func TestPaste_SkipsTransparentSourcePixels(t *testing.T) {
	r, err := region.FromPoints("one",
		region.Point{},
		region.Point{PixelX: 1, PixelY: 1},
		2,
	)
	require.NoError(t, err)

	canvas := NewCanvas(r)
	Paste(canvas, r, TileImage{Coord: common.TileCoord{}, Image: filled(2, color.NRGBA{R: 1, A: 255})})

	overlay := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	overlay.SetNRGBA(1, 1, color.NRGBA{B: 9, A: 255})
	Paste(canvas, r, TileImage{Coord: common.TileCoord{}, Image: overlay})

	assert.Equal(t, color.NRGBA{R: 1, A: 255}, canvas.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 9, A: 255}, canvas.NRGBAAt(1, 1))
}

func TestCrop_ZeroOrigin(t *testing.T) {
	img := filled(4, color.NRGBA{G: 7, A: 255})
	img.SetNRGBA(2, 3, color.NRGBA{R: 1, A: 255})

	out := Crop(img, image.Rect(2, 2, 4, 4))
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 1, A: 255}, out.NRGBAAt(0, 1))
}
