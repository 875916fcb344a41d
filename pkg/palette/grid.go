package palette

import (
	"fmt"
	"math"
)

// GridSize is the side length of the square palette picker. One cell per
// ColorIndex: index = x + y*GridSize.
const GridSize = 64

// IndexAt returns the palette cell under a pointer given as coordinates
// relative to the palette's bounding box (0 <= rel < 1).
func IndexAt(relX, relY float64) (ColorIndex, error) {
	x := int(math.Floor(relX * GridSize))
	y := int(math.Floor(relY * GridSize))
	if x < 0 || x >= GridSize || y < 0 || y >= GridSize {
		return 0, fmt.Errorf("%w: palette cell (%d,%d)", ErrOutOfRange, x, y)
	}
	return ColorIndex(x + y*GridSize), nil
}

// CellOf returns the palette grid coordinates of an index.
func CellOf(c ColorIndex) (x, y int) {
	return int(c) % GridSize, int(c) / GridSize
}

// Next steps to the following palette color, staying at MaxIndex.
func Next(c ColorIndex) ColorIndex {
	if c >= MaxIndex {
		return MaxIndex
	}
	return c + 1
}

// Prev steps to the preceding palette color, staying at 0.
func Prev(c ColorIndex) ColorIndex {
	if c == 0 {
		return 0
	}
	return c - 1
}

// Paintable reports whether an index may be chosen as a brush color.
// The reserved unpainted index is excluded.
func Paintable(c ColorIndex) bool {
	return c != Unpainted && c <= MaxIndex
}
