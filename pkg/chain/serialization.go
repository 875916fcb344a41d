package chain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/palette"
)

// Serialization helpers for converting between canvas records and Redis hashes.
//
// Scalar fields get their own hash field. The pixel grid is stored in one
// field as three lowercase hex digits per cell (the same digits Decode uses),
// in position order, so a 16×16 grid is a 768-character string.

// CanvasToHash converts a canvas record and its pixels to a Redis hash.
func CanvasToHash(d *CanvasData, pixels []palette.ColorIndex) (map[string]interface{}, error) {
	encoded, err := EncodePixels(pixels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pixels: %w", err)
	}

	hash := map[string]interface{}{
		"token_id":   d.TokenID,
		"created_at": d.CreatedAt,
		"title":      d.Title,
		"is_locked":  d.IsLocked,
		"pixels":     encoded,
	}
	return hash, nil
}

// HashToCanvas converts a Redis hash back to a canvas record and its pixels.
func HashToCanvas(hash map[string]string) (*CanvasData, []palette.ColorIndex, error) {
	tokenID, err := strconv.ParseUint(hash["token_id"], 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token_id field: %w", err)
	}

	createdAt, err := strconv.ParseInt(hash["created_at"], 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid created_at field: %w", err)
	}

	// go-redis writes bools as "1"/"0"
	isLocked, _ := strconv.ParseBool(hash["is_locked"])

	pixels, err := DecodePixels(hash["pixels"])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid pixels field: %w", err)
	}

	data := &CanvasData{
		TokenID:   tokenID,
		CreatedAt: createdAt,
		Title:     hash["title"],
		IsLocked:  isLocked,
	}
	return data, pixels, nil
}

// EncodePixels writes a full grid as 3 hex digits per cell.
func EncodePixels(pixels []palette.ColorIndex) (string, error) {
	if len(pixels) != canvas.Size {
		return "", fmt.Errorf("grid has %d cells, want %d", len(pixels), canvas.Size)
	}

	var sb strings.Builder
	sb.Grow(3 * len(pixels))
	for i, c := range pixels {
		if err := c.Validate(); err != nil {
			return "", fmt.Errorf("cell %d: %w", i, err)
		}
		// Decode gives "#rgb"; drop the '#'.
		sb.WriteString(palette.Decode(c)[1:])
	}
	return sb.String(), nil
}

// DecodePixels parses the output of EncodePixels.
func DecodePixels(s string) ([]palette.ColorIndex, error) {
	if len(s) != 3*canvas.Size {
		return nil, fmt.Errorf("encoded grid has %d chars, want %d", len(s), 3*canvas.Size)
	}

	out := make([]palette.ColorIndex, canvas.Size)
	for i := range out {
		v, err := strconv.ParseUint(s[3*i:3*i+3], 16, 16)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		out[i] = palette.ColorIndex(v)
	}
	return out, nil
}
