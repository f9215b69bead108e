package region

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tile-timelapse/internal/common"
)

func TestParseDescriptor(t *testing.T) {
	p, err := ParseDescriptor("(Tl X: 1721, Tl Y: 793, Px X: 5, Px Y: 980)")
	require.NoError(t, err)
	assert.Equal(t, Point{TileX: 1721, TileY: 793, PixelX: 5, PixelY: 980}, p)

	// Copied text often carries surrounding noise
	p, err = ParseDescriptor("Coordinates (Tl X: 0, Tl Y: 2, Px X: 3, Px Y: 4) copied")
	require.NoError(t, err)
	assert.Equal(t, Point{0, 2, 3, 4}, p)

	p, err = ParseDescriptor(" 7, 8,9 ,10 ")
	require.NoError(t, err)
	assert.Equal(t, Point{7, 8, 9, 10}, p)
}

func TestParseDescriptor_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"(Tl X: 1, Tl Y: 2, Px X: 3)",
		"(Tl X: , Tl Y: 2, Px X: 3, Px Y: 4)",
		"(Tl X: -1, Tl Y: 2, Px X: 3, Px Y: 4)",
		"1,2,3",
		"a,b,c,d",
	} {
		_, err := ParseDescriptor(in)
		require.Error(t, err, in)
		assert.True(t, IsConfigurationError(err), in)
	}
}

func TestRegion_GridAndCrop(t *testing.T) {
	r, err := New("scenario",
		"(Tl X: 0, Tl Y: 0, Px X: 5, Px Y: 5)",
		"(Tl X: 1, Tl Y: 0, Px X: 10, Px Y: 10)",
		1000)
	require.NoError(t, err)

	assert.Equal(t, 2, r.GridWidth())
	assert.Equal(t, 1, r.GridHeight())
	assert.Equal(t, image.Rect(5, 5, 1010, 11), r.CropRect())
	assert.Equal(t, image.Rect(0, 0, 2000, 1000), r.CanvasRect())
	assert.Equal(t, []common.TileCoord{{X: 0, Y: 0}, {X: 1, Y: 0}}, r.Tiles())
	assert.Equal(t, image.Pt(1000, 0), r.TileOffset(common.TileCoord{X: 1, Y: 0}))
}

func TestRegion_TilesCoverGrid(t *testing.T) {
	r, err := FromPoints("grid", Point{10, 20, 0, 0}, Point{12, 21, 999, 999}, 1000)
	require.NoError(t, err)

	tiles := r.Tiles()
	assert.Len(t, tiles, 6)
	for _, c := range tiles {
		assert.True(t, r.Bounds().Contains(c), c.String())
	}
	assert.Equal(t, image.Rect(0, 0, 3000, 2000), r.CropRect())
}

func TestRegion_Invalid(t *testing.T) {
	cases := map[string]struct {
		start, end Point
		tileSize   int
	}{
		"reversed x":      {Point{2, 0, 0, 0}, Point{1, 0, 0, 0}, 1000},
		"reversed y":      {Point{0, 5, 0, 0}, Point{0, 4, 0, 0}, 1000},
		"pixel too large": {Point{0, 0, 1000, 0}, Point{1, 1, 0, 0}, 1000},
		"empty crop":      {Point{0, 0, 50, 50}, Point{0, 0, 10, 10}, 1000},
		"zero tile size":  {Point{0, 0, 0, 0}, Point{0, 0, 0, 0}, 0},
		"mistyped x":      {Point{1818, 806, 0, 0}, Point{3000000, 806, 0, 0}, 1000},
		"too many tiles":  {Point{0, 0, 0, 0}, Point{10, 10, 0, 0}, 1000},
		"huge tile size":  {Point{0, 0, 0, 0}, Point{0, 0, 0, 0}, MaxTileSize + 1},
		"huge canvas":     {Point{0, 0, 0, 0}, Point{4, 1, 0, 0}, MaxTileSize},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromPoints("bad", tc.start, tc.end, tc.tileSize)
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestFromPoints_LargestAllowedGrid(t *testing.T) {
	r, err := FromPoints("wide", Point{0, 0, 0, 0}, Point{MaxTiles - 1, 0, 999, 999}, 1000)
	require.NoError(t, err)
	assert.Len(t, r.Tiles(), MaxTiles)
}

func TestNew_ReportsField(t *testing.T) {
	_, err := New("plaza", "(Tl X: 1, Tl Y: 2, Px X: 3, Px Y: 4)", "garbage", 1000)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "plaza", cfgErr.Region)
	assert.Equal(t, "end", cfgErr.Field)
}

func TestPoint_StringRoundTrip(t *testing.T) {
	p := Point{TileX: 3, TileY: 4, PixelX: 5, PixelY: 6}
	parsed, err := ParseDescriptor(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}
