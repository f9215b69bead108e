package snapshot

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_Identical(t *testing.T) {
	assert.True(t, Diff(testImage(1), testImage(1)).Empty())
	assert.False(t, Changed(testImage(1), testImage(1)))
}

func TestDiff_BoundingBox(t *testing.T) {
	a := testImage(1)
	b := testImage(1)
	b.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	b.SetNRGBA(4, 2, color.NRGBA{B: 255, A: 255})

	assert.Equal(t, image.Rect(1, 1, 5, 3), Diff(a, b))
	assert.True(t, Changed(a, b))
}

func TestDiff_TransparentPixelsAreEqual(t *testing.T) {
	a := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	b := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	b.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, A: 0})
	assert.True(t, Diff(a, b).Empty())
}

func TestDiff_SizeMismatch(t *testing.T) {
	a := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	b := image.NewNRGBA(image.Rect(0, 0, 2, 5))
	assert.Equal(t, image.Rect(0, 0, 3, 5), Diff(a, b))
}

func TestDiff_IgnoresOrigin(t *testing.T) {
	a := testImage(1)
	shifted := image.NewNRGBA(image.Rect(10, 10, 16, 14))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			shifted.SetNRGBA(10+x, 10+y, a.NRGBAAt(x, y))
		}
	}
	assert.True(t, Diff(a, shifted).Empty())
}

func TestChanged_NoLatest(t *testing.T) {
	assert.True(t, Changed(nil, testImage(1)))
	var p *image.Paletted
	assert.True(t, Changed(p, testImage(1)))
}
