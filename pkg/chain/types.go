package chain

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/palette"
)

// MaxTitleLength bounds the title accepted by LockCanvas.
const MaxTitleLength = 64

var (
	// ErrCanvasNotFound is returned for a token id that was never minted.
	ErrCanvasNotFound = errors.New("canvas not found")

	// ErrCanvasLocked is returned when committing to or locking a locked canvas.
	ErrCanvasLocked = errors.New("canvas already locked")

	// ErrLockTooEarly is returned when locking before the lock window elapsed.
	ErrLockTooEarly = errors.New("canvas cannot be locked yet")

	// ErrCanvasOpen is returned by CreateNewCanvas while the newest canvas is
	// still unlocked.
	ErrCanvasOpen = errors.New("latest canvas is still open")

	// ErrInvalidTransaction is returned for a write the ledger refuses to
	// accept: bad address, empty or inconsistent pixel lists, long titles.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrPublishFailed is returned together with a receipt when a write was
	// committed but its notification could not be published. The write must
	// not be retried.
	ErrPublishFailed = errors.New("transaction committed but event not published")
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// CanvasData is the result of canvasData(id).
type CanvasData struct {
	TokenID   uint64 `json:"token_id"`
	CreatedAt int64  `json:"created_at"` // Unix seconds
	Title     string `json:"title"`
	IsLocked  bool   `json:"is_locked"`
}

// Validate checks that the record can be used as canvas metadata.
func (d *CanvasData) Validate() error {
	if d.TokenID == 0 {
		return fmt.Errorf("invalid token id: must be >= 1")
	}
	if d.CreatedAt <= 0 {
		return fmt.Errorf("invalid created_at: %d", d.CreatedAt)
	}
	if len(d.Title) > MaxTitleLength {
		return fmt.Errorf("invalid title: longer than %d bytes", MaxTitleLength)
	}
	return nil
}

// Meta converts the record to canvas metadata.
func (d *CanvasData) Meta() canvas.Meta {
	return canvas.Meta{
		CreatedAt: time.Unix(d.CreatedAt, 0),
		Title:     d.Title,
		IsLocked:  d.IsLocked,
	}
}

// Snapshot is a full read of one canvas: canvasData plus getPixels.
type Snapshot struct {
	Data   CanvasData           `json:"data"`
	Pixels []palette.ColorIndex `json:"pixels"`
}

// Validate checks the metadata and that the pixel list is a complete grid of
// valid colors.
func (s *Snapshot) Validate() error {
	if err := s.Data.Validate(); err != nil {
		return fmt.Errorf("invalid canvas data: %w", err)
	}
	if len(s.Pixels) != canvas.Size {
		return fmt.Errorf("invalid pixels: got %d, want %d", len(s.Pixels), canvas.Size)
	}
	for i, c := range s.Pixels {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid pixel at position %d: %w", i, err)
		}
	}
	return nil
}

// Contributors is the result of getContributors(id): parallel sequences of
// addresses and the number of pixels each committed.
type Contributors struct {
	Addresses   []string `json:"addresses"`
	PixelCounts []uint64 `json:"pixel_counts"`
}

// Validate checks the sequences are parallel and addresses well formed.
func (c *Contributors) Validate() error {
	if len(c.Addresses) != len(c.PixelCounts) {
		return fmt.Errorf("mismatched contributors: %d addresses, %d counts", len(c.Addresses), len(c.PixelCounts))
	}
	for i, a := range c.Addresses {
		if !IsValidAddress(a) {
			return fmt.Errorf("invalid contributor address at index %d: %q", i, a)
		}
	}
	return nil
}

// List pairs addresses with their counts.
func (c *Contributors) List() []canvas.Contributor {
	out := make([]canvas.Contributor, len(c.Addresses))
	for i := range c.Addresses {
		out[i] = canvas.Contributor{Address: c.Addresses[i], PixelCount: c.PixelCounts[i]}
	}
	return out
}

// Receipt confirms a write transaction.
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	From        string `json:"from"`
}

// EventType names a ledger notification.
type EventType string

const (
	// EventCanvasUpdated is emitted after pixels are committed.
	EventCanvasUpdated EventType = "CanvasUpdated"

	// EventCanvasLocked is emitted after a canvas is locked.
	EventCanvasLocked EventType = "CanvasLocked"
)

// Validate checks if the EventType is a known value.
func (et EventType) Validate() error {
	switch et {
	case EventCanvasUpdated, EventCanvasLocked:
		return nil
	default:
		return fmt.Errorf("unknown event type: %q", et)
	}
}

// Event is a ledger notification as delivered on the events channel.
//
// ColorIDs and Positions are kept as plain integers: the payload is not
// guaranteed to be self-consistent, and deciding what to do with a bad
// payload is up to the consumer.
type Event struct {
	Type        EventType `json:"type"`
	TokenID     uint64    `json:"token_id"`
	ColorIDs    []int     `json:"color_ids,omitempty"`
	Positions   []int     `json:"positions,omitempty"`
	Title       string    `json:"title,omitempty"`
	BlockNumber uint64    `json:"block_number"`
	TxHash      string    `json:"tx_hash,omitempty"`
}

// Validate checks the envelope only; the patch payload is checked when applied.
func (e *Event) Validate() error {
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if e.TokenID == 0 {
		return fmt.Errorf("invalid token id: must be >= 1")
	}
	return nil
}

// Colors converts ColorIDs to palette indices. Any value outside the palette
// is reported as canvas.ErrMalformedPatch.
func (e *Event) Colors() ([]palette.ColorIndex, error) {
	out := make([]palette.ColorIndex, len(e.ColorIDs))
	for i, v := range e.ColorIDs {
		c, err := palette.FromInt(v)
		if err != nil {
			return nil, fmt.Errorf("%w: color at index %d: %v", canvas.ErrMalformedPatch, i, err)
		}
		out[i] = c
	}
	return out, nil
}

// IsValidAddress reports whether s looks like a 20-byte hex account address.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}
