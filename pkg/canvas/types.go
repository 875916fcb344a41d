// Package canvas holds the in-memory state of a single Splatter canvas: the
// committed grid confirmed by the ledger, the local list of uncommitted edits,
// and the canvas metadata.
//
// The grid is fixed at Width×Height cells addressed by Position, where
// position = x + y*Width. Every value entering the state is bounds checked;
// out-of-range input is rejected, never clamped.
package canvas

import (
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/splatter/pkg/palette"
)

const (
	// Width is the number of cells per canvas row.
	Width = 16

	// Height is the number of rows on a canvas.
	Height = 16

	// Size is the number of cells on a canvas.
	Size = Width * Height
)

var (
	// ErrOutOfBounds is returned for a coordinate or position outside the grid.
	ErrOutOfBounds = errors.New("position out of bounds")

	// ErrLockedCanvas is returned when an edit is attempted on a locked canvas.
	ErrLockedCanvas = errors.New("canvas is locked")

	// ErrMalformedPatch is returned when a confirmed update cannot be applied as
	// a whole: mismatched sequence lengths, a bad position or a bad color.
	ErrMalformedPatch = errors.New("malformed patch")

	// ErrMalformedSnapshot is returned by Hydrate for a grid of the wrong
	// length or containing invalid colors.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// Meta is the canvas metadata read from the ledger.
type Meta struct {
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"` // empty means "use the default display title"
	IsLocked  bool      `json:"is_locked"`
}

// DisplayTitle returns the title to show for the canvas, falling back to
// "Canvas #<id>" when no title has been set.
func (m Meta) DisplayTitle(tokenID uint64) string {
	if m.Title == "" {
		return fmt.Sprintf("Canvas #%d", tokenID)
	}
	return m.Title
}

// PendingEdit is a single locally painted, not yet confirmed pixel.
type PendingEdit struct {
	X     int                `json:"x"`
	Y     int                `json:"y"`
	Color palette.ColorIndex `json:"color"`
}

// Position returns the grid position of the edit.
func (e PendingEdit) Position() int {
	return e.X + e.Y*Width
}

// Contributor is an address and the number of pixels it committed. Only
// meaningful once the canvas is locked.
type Contributor struct {
	Address    string `json:"address"`
	PixelCount uint64 `json:"pixel_count"`
}

// Position converts grid coordinates to a position.
func Position(x, y int) (int, error) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0, fmt.Errorf("%w: (%d,%d) not in %dx%d", ErrOutOfBounds, x, y, Width, Height)
	}
	return x + y*Width, nil
}

// Coords converts a position to grid coordinates.
func Coords(position int) (x, y int, err error) {
	if position < 0 || position >= Size {
		return 0, 0, fmt.Errorf("%w: position %d not in [0,%d)", ErrOutOfBounds, position, Size)
	}
	return position % Width, position / Width, nil
}
