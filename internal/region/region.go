// Package region translates human-specified corner descriptors into tile-grid
// iteration bounds and the canvas-local crop rectangle.
package region

import (
	"errors"
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"

	"tile-timelapse/internal/common"
)

// ConfigurationError reports a malformed or inconsistent region descriptor.
// It is fatal to the region it belongs to and to nothing else.
type ConfigurationError struct {
	Region string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Region != "" && e.Field != "":
		return fmt.Sprintf("region %q: %s: %s", e.Region, e.Field, e.Reason)
	case e.Region != "":
		return fmt.Sprintf("region %q: %s", e.Region, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return e.Reason
}

// IsConfigurationError reports whether err wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// Size limits for one region. Larger grids are almost always a mistyped
// descriptor and would exhaust memory before the first tile arrives.
const (
	MaxTiles        = 100
	MaxTileSize     = 1 << 14
	MaxCanvasPixels = 1 << 28
)

// Point is one corner of a region: a tile plus a pixel offset inside it
type Point struct {
	TileX  int
	TileY  int
	PixelX int
	PixelY int
}

// String renders the point in the descriptor format the wplace UI copies out
func (p Point) String() string {
	return fmt.Sprintf("(Tl X: %d, Tl Y: %d, Px X: %d, Px Y: %d)", p.TileX, p.TileY, p.PixelX, p.PixelY)
}

var (
	descriptorPattern = regexp.MustCompile(`\(\s*Tl X:\s*(\d*)\s*,\s*Tl Y:\s*(\d*)\s*,\s*Px X:\s*(\d*)\s*,\s*Px Y:\s*(\d*)\s*\)`)
	barePattern       = regexp.MustCompile(`^\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*$`)
)

// ParseDescriptor extracts the four non-negative integers of a corner
// descriptor. Both "(Tl X: 1, Tl Y: 2, Px X: 3, Px Y: 4)" (possibly embedded
// in longer text) and the bare form "1,2,3,4" are accepted.
func ParseDescriptor(s string) (Point, error) {
	groups := descriptorPattern.FindStringSubmatch(s)
	if groups == nil {
		groups = barePattern.FindStringSubmatch(s)
	}
	if groups == nil {
		return Point{}, &ConfigurationError{Reason: fmt.Sprintf("malformed descriptor %q", s)}
	}

	values := make([]int, 4)
	for i, raw := range groups[1:] {
		if raw == "" {
			return Point{}, &ConfigurationError{Reason: fmt.Sprintf("missing value in descriptor %q", s)}
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Point{}, &ConfigurationError{Reason: fmt.Sprintf("invalid number %q in descriptor %q", raw, s)}
		}
		values[i] = v
	}

	return Point{TileX: values[0], TileY: values[1], PixelX: values[2], PixelY: values[3]}, nil
}

// Region is an immutable rectangular area of interest on the tiled surface
type Region struct {
	Name     string
	Start    Point
	End      Point
	TileSize int
}

// New parses both corner descriptors and validates the resulting region
func New(name, start, end string, tileSize int) (Region, error) {
	startPoint, err := ParseDescriptor(start)
	if err != nil {
		return Region{}, withContext(err, name, "start")
	}
	endPoint, err := ParseDescriptor(end)
	if err != nil {
		return Region{}, withContext(err, name, "end")
	}
	return FromPoints(name, startPoint, endPoint, tileSize)
}

// FromPoints validates already-parsed corners
func FromPoints(name string, start, end Point, tileSize int) (Region, error) {
	name = strings.TrimSpace(name)
	fail := func(field, format string, args ...any) (Region, error) {
		return Region{}, &ConfigurationError{Region: name, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	if name == "" {
		return fail("name", "must not be empty")
	}
	if tileSize <= 0 {
		return fail("tile_size", "must be positive, got %d", tileSize)
	}
	if tileSize > MaxTileSize {
		return fail("tile_size", "%d exceeds the limit of %d", tileSize, MaxTileSize)
	}
	corners := []struct {
		field string
		p     Point
	}{{"start", start}, {"end", end}}
	for _, c := range corners {
		field, p := c.field, c.p
		if p.TileX < 0 || p.TileY < 0 {
			return fail(field, "tile coordinates must be non-negative, got (%d, %d)", p.TileX, p.TileY)
		}
		if p.PixelX < 0 || p.PixelX >= tileSize || p.PixelY < 0 || p.PixelY >= tileSize {
			return fail(field, "pixel offset (%d, %d) outside [0, %d)", p.PixelX, p.PixelY, tileSize)
		}
	}
	if start.TileX > end.TileX {
		return fail("end", "tile X %d is left of start tile X %d", end.TileX, start.TileX)
	}
	if start.TileY > end.TileY {
		return fail("end", "tile Y %d is above start tile Y %d", end.TileY, start.TileY)
	}

	// Differences of non-negative ints cannot overflow; the +1 is applied after the cap
	dx, dy := end.TileX-start.TileX, end.TileY-start.TileY
	if dx >= MaxTiles || dy >= MaxTiles || (dx+1)*(dy+1) > MaxTiles {
		return fail("end", "grid of %d x %d tiles exceeds the limit of %d tiles", uint(dx)+1, uint(dy)+1, MaxTiles)
	}
	if pixels := (dx + 1) * (dy + 1) * tileSize * tileSize; pixels > MaxCanvasPixels {
		return fail("end", "canvas of %d pixels exceeds the limit of %d", pixels, MaxCanvasPixels)
	}

	r := Region{Name: name, Start: start, End: end, TileSize: tileSize}
	if r.CropRect().Empty() {
		return fail("end", "crop rectangle %v is empty", r.CropRect())
	}
	return r, nil
}

// Bounds returns the inclusive tile grid
func (r Region) Bounds() common.TileBounds {
	return common.TileBounds{
		MinCol: r.Start.TileX,
		MaxCol: r.End.TileX,
		MinRow: r.Start.TileY,
		MaxRow: r.End.TileY,
	}
}

// GridWidth is the number of tile columns
func (r Region) GridWidth() int {
	return r.End.TileX - r.Start.TileX + 1
}

// GridHeight is the number of tile rows
func (r Region) GridHeight() int {
	return r.End.TileY - r.Start.TileY + 1
}

// Tiles enumerates every tile coordinate covering the region
func (r Region) Tiles() []common.TileCoord {
	return r.Bounds().Coords()
}

// CanvasRect is the full grid canvas before cropping
func (r Region) CanvasRect() image.Rectangle {
	return image.Rect(0, 0, r.GridWidth()*r.TileSize, r.GridHeight()*r.TileSize)
}

// CropRect is the region's exact pixel rectangle in canvas-local coordinates.
// The end corner's pixel is included.
// The rectangle is built literally rather than with image.Rect so that a
// reversed corner pair stays Empty instead of being swapped.
func (r Region) CropRect() image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(r.Start.PixelX, r.Start.PixelY),
		Max: image.Pt(
			(r.GridWidth()-1)*r.TileSize+r.End.PixelX+1,
			(r.GridHeight()-1)*r.TileSize+r.End.PixelY+1,
		),
	}
}

// TileOffset is where a tile's top-left corner lands on the canvas
func (r Region) TileOffset(c common.TileCoord) image.Point {
	return image.Pt((c.X-r.Start.TileX)*r.TileSize, (c.Y-r.Start.TileY)*r.TileSize)
}

func withContext(err error, name, field string) error {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return &ConfigurationError{Region: strings.TrimSpace(name), Field: field, Reason: cfgErr.Reason}
	}
	return err
}
