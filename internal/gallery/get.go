package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dyluth/splatter/pkg/chain"
)

// Reader reads canvases from the ledger.
type Reader interface {
	TotalSupply(ctx context.Context) (uint64, error)
	Snapshot(ctx context.Context, tokenID uint64) (*chain.Snapshot, error)
}

// ErrNoCanvases is returned when resolving the latest canvas of an empty network.
var ErrNoCanvases = errors.New("no canvases minted yet")

// ResolveCanvasID maps tokenID 0 to the newest canvas. Other ids pass through.
func ResolveCanvasID(ctx context.Context, client Reader, tokenID uint64) (uint64, error) {
	if tokenID != 0 {
		return tokenID, nil
	}
	supply, err := client.TotalSupply(ctx)
	if err != nil {
		return 0, err
	}
	if supply == 0 {
		return 0, ErrNoCanvases
	}
	return supply, nil
}

// GetCanvas fetches one canvas and writes it as pretty-printed JSON.
// Returns a CanvasNotFoundError if the canvas was never minted.
func GetCanvas(ctx context.Context, client Reader, tokenID uint64, w io.Writer) error {
	snap, err := client.Snapshot(ctx, tokenID)
	if err != nil {
		if chain.IsNotFound(err) {
			return &CanvasNotFoundError{TokenID: tokenID}
		}
		return fmt.Errorf("failed to fetch canvas: %w", err)
	}

	if err := FormatSingleJSON(w, snap); err != nil {
		return fmt.Errorf("failed to format canvas: %w", err)
	}

	return nil
}

// CanvasNotFoundError represents a specific "canvas not found" error.
type CanvasNotFoundError struct {
	TokenID uint64
}

func (e *CanvasNotFoundError) Error() string {
	return fmt.Sprintf("canvas %d not found", e.TokenID)
}

// IsNotFound returns true if the error is a CanvasNotFoundError.
func IsNotFound(err error) bool {
	var nf *CanvasNotFoundError
	return errors.As(err, &nf)
}
