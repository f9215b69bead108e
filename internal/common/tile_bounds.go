package common

import "fmt"

// TileCoord identifies one tile in absolute tile space
type TileCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the coordinate as "x/y", the same shape used in tile URLs
func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d", c.X, c.Y)
}

// TileBounds represents the inclusive min/max row and column bounds of a tile grid
type TileBounds struct {
	MinCol int
	MaxCol int
	MinRow int
	MaxRow int
}

// Cols returns the number of columns in the bounds
func (tb TileBounds) Cols() int {
	return tb.MaxCol - tb.MinCol + 1
}

// Rows returns the number of rows in the bounds
func (tb TileBounds) Rows() int {
	return tb.MaxRow - tb.MinRow + 1
}

// Count returns the number of tiles covered by the bounds
func (tb TileBounds) Count() int {
	return tb.Cols() * tb.Rows()
}

// Contains reports whether a coordinate lies inside the bounds
func (tb TileBounds) Contains(c TileCoord) bool {
	return c.X >= tb.MinCol && c.X <= tb.MaxCol && c.Y >= tb.MinRow && c.Y <= tb.MaxRow
}

// Coords enumerates every coordinate in the bounds, column-major (x outer, y inner)
func (tb TileBounds) Coords() []TileCoord {
	if tb.Cols() <= 0 || tb.Rows() <= 0 {
		return nil
	}
	coords := make([]TileCoord, 0, tb.Count())
	for x := tb.MinCol; x <= tb.MaxCol; x++ {
		for y := tb.MinRow; y <= tb.MaxRow; y++ {
			coords = append(coords, TileCoord{X: x, Y: y})
		}
	}
	return coords
}
