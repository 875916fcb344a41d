// Package palette implements the 12-bit packed color representation used by
// Splatter canvases.
//
// A ColorIndex packs three 4-bit channels (R, G, B) into a single integer in
// [0, 4095]: (r << 8) | (g << 4) | b. Sixteen levels per channel gives 4096
// colors, which is exactly one cell per index on the 64×64 palette grid.
//
// Index 0 is reserved to mean "unpainted". It is a valid index for the codec
// but renderers never draw it as an opaque pixel and the paintable palette
// starts at 1.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

const (
	// MaxIndex is the largest valid ColorIndex.
	MaxIndex ColorIndex = 0xfff

	// Count is the number of distinct color indices.
	Count = int(MaxIndex) + 1

	// MaxChannel is the largest value of a single 4-bit channel.
	MaxChannel = 0xf

	// Unpainted is the reserved "transparent" index.
	Unpainted ColorIndex = 0
)

// ErrOutOfRange is returned when a channel or index is outside its declared bound.
var ErrOutOfRange = errors.New("color value out of range")

// ColorIndex identifies one of the 4096 palette colors.
type ColorIndex uint16

// Validate checks that the index fits in 12 bits.
func (c ColorIndex) Validate() error {
	if c > MaxIndex {
		return fmt.Errorf("%w: index %d exceeds %d", ErrOutOfRange, c, MaxIndex)
	}
	return nil
}

// Hex returns the compact "#rgb" form of the index.
func (c ColorIndex) Hex() string {
	return Decode(c)
}

// Encode packs three 4-bit channels into a ColorIndex.
func Encode(r, g, b int) (ColorIndex, error) {
	channels := []struct {
		name  string
		value int
	}{{"red", r}, {"green", g}, {"blue", b}}
	for _, ch := range channels {
		if ch.value < 0 || ch.value > MaxChannel {
			return 0, fmt.Errorf("%w: %s channel %d not in [0,%d]", ErrOutOfRange, ch.name, ch.value, MaxChannel)
		}
	}
	return ColorIndex(r<<8 | g<<4 | b), nil
}

// FromInt converts an untyped integer (as read from a wire format or a flag)
// into a ColorIndex, rejecting anything outside [0, 4095].
func FromInt(v int) (ColorIndex, error) {
	if v < 0 || v > int(MaxIndex) {
		return 0, fmt.Errorf("%w: index %d not in [0,%d]", ErrOutOfRange, v, MaxIndex)
	}
	return ColorIndex(v), nil
}

// Channels splits an index into its three nibbles.
func Channels(c ColorIndex) (r, g, b int) {
	return int(c>>8) & 0xf, int(c>>4) & 0xf, int(c) & 0xf
}

const hexDigits = "0123456789abcdef"

// Decode returns the display color for an index as a 3-digit hex triplet,
// one digit per channel: "#" + r + g + b.
func Decode(c ColorIndex) string {
	r, g, b := Channels(c)
	return string([]byte{'#', hexDigits[r], hexDigits[g], hexDigits[b]})
}

// RGBA expands each nibble to a full byte (x * 17, so 0xf becomes 0xff) for
// raster outputs such as the LED matrix and PNG exports.
func RGBA(c ColorIndex) color.RGBA {
	r, g, b := Channels(c)
	return color.RGBA{R: uint8(r * 17), G: uint8(g * 17), B: uint8(b * 17), A: 0xff}
}

// Parse reads a color written as "#rgb" (the Decode form) or as a decimal
// index.
func Parse(s string) (ColorIndex, error) {
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 3 {
			return 0, fmt.Errorf("invalid color %q: want #rgb", s)
		}
		v, err := strconv.ParseUint(hex, 16, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return ColorIndex(v), nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: want #rgb or an index", s)
	}
	return FromInt(v)
}
