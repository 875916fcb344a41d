// Package editor implements the interactive painting session for one canvas:
// selecting colors, painting and undoing pending pixels, committing them to
// the ledger, locking the canvas and reading its contributors.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/splatter/internal/metrics"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/dyluth/splatter/pkg/palette"
)

var (
	// ErrNotLockable is returned by Lock while the lock window is still running.
	ErrNotLockable = errors.New("canvas is not lockable yet")

	// ErrNotLocked is returned by Contributors for an open canvas.
	ErrNotLocked = errors.New("canvas is not locked")

	// ErrNothingToCommit is returned by Commit with no pending edits.
	ErrNothingToCommit = errors.New("no pending edits to commit")
)

// DefaultColor is selected when a session starts.
const DefaultColor palette.ColorIndex = 0xfff

// Contract is the ledger surface the editor drives.
type Contract interface {
	Snapshot(ctx context.Context, tokenID uint64) (*chain.Snapshot, error)
	CommitPixels(ctx context.Context, tokenID uint64, from string, colors []palette.ColorIndex, positions []int) (*chain.Receipt, error)
	LockCanvas(ctx context.Context, tokenID uint64, from, title string) (*chain.Receipt, error)
	CreateNewCanvas(ctx context.Context, from string) (uint64, *chain.Receipt, error)
	GetContributors(ctx context.Context, tokenID uint64) (*chain.Contributors, error)
}

// Editor is one user's session on one canvas. The state is owned by the
// caller and may be shared with a reconciler.
type Editor struct {
	contract     Contract
	state        *canvas.State
	tokenID      uint64
	account      string
	lockDuration time.Duration
	now          func() time.Time

	mu       sync.Mutex
	selected palette.ColorIndex
}

// New creates an editor acting as account on canvas tokenID.
func New(contract Contract, state *canvas.State, tokenID uint64, account string, lockDuration time.Duration) *Editor {
	return &Editor{
		contract:     contract,
		state:        state,
		tokenID:      tokenID,
		account:      account,
		lockDuration: lockDuration,
		now:          time.Now,
		selected:     DefaultColor,
	}
}

// TokenID returns the canvas being edited.
func (e *Editor) TokenID() uint64 {
	return e.tokenID
}

// State returns the live state handle.
func (e *Editor) State() *canvas.State {
	return e.state
}

// Load hydrates the state from the ledger. Pending edits are kept while the
// canvas is open.
func (e *Editor) Load(ctx context.Context) error {
	snap, err := e.contract.Snapshot(ctx, e.tokenID)
	if err != nil {
		return fmt.Errorf("failed to load canvas %d: %w", e.tokenID, err)
	}
	if err := e.state.Hydrate(snap.Data.Meta(), snap.Pixels); err != nil {
		return fmt.Errorf("failed to hydrate canvas %d: %w", e.tokenID, err)
	}
	return nil
}

// Select sets the color used by Paint.
func (e *Editor) Select(c palette.ColorIndex) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.selected = c
	e.mu.Unlock()
	return nil
}

// Selected returns the current color.
func (e *Editor) Selected() palette.ColorIndex {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// NextColor and PrevColor step the selection through the palette.
func (e *Editor) NextColor() palette.ColorIndex {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = palette.Next(e.selected)
	return e.selected
}

func (e *Editor) PrevColor() palette.ColorIndex {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = palette.Prev(e.selected)
	return e.selected
}

// Paint appends a pending edit at (x, y) with the selected color.
func (e *Editor) Paint(x, y int) error {
	return e.state.AppendEdit(x, y, e.Selected())
}

// PickColor makes the effective color at (x, y) the selected color.
func (e *Editor) PickColor(x, y int) (palette.ColorIndex, error) {
	c, err := e.state.EffectiveColorAt(x, y)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	e.selected = c
	e.mu.Unlock()
	return c, nil
}

// Undo drops the newest pending edit.
func (e *Editor) Undo() {
	e.state.UndoLast()
}

// Commit submits every pending edit, shadowed ones included, in edit order.
// Once the ledger confirms, the submitted edits are dropped; edits painted
// while the commit was in flight stay pending. On failure nothing is dropped.
func (e *Editor) Commit(ctx context.Context) (*chain.Receipt, error) {
	if e.state.Meta().IsLocked {
		return nil, canvas.ErrLockedCanvas
	}
	edits := e.state.Edits()
	if len(edits) == 0 {
		return nil, ErrNothingToCommit
	}
	colors, positions := canvas.PatchOf(edits)

	receipt, err := e.contract.CommitPixels(ctx, e.tokenID, e.account, colors, positions)
	metrics.LedgerTransactions.WithLabelValues("commit", metrics.Result(err)).Inc()
	if receipt == nil {
		if err == nil {
			err = errors.New("no receipt")
		}
		return nil, fmt.Errorf("failed to commit %d pixels: %w", len(positions), err)
	}
	if err != nil {
		log.Printf("[Editor] Canvas %d commit confirmed in block %d: %v", e.tokenID, receipt.BlockNumber, err)
	}

	e.state.TrimCommitted(edits)
	return receipt, nil
}

// SecondsRemaining returns the time left before the canvas can be locked.
// Negative once the window has passed.
func (e *Editor) SecondsRemaining() float64 {
	return canvas.SecondsRemaining(e.state.Meta().CreatedAt, e.now(), e.lockDuration)
}

// Lock freezes the canvas under title.
func (e *Editor) Lock(ctx context.Context, title string) (*chain.Receipt, error) {
	meta := e.state.Meta()
	if meta.IsLocked {
		return nil, canvas.ErrLockedCanvas
	}
	if !canvas.Lockable(meta.CreatedAt, e.now(), e.lockDuration) {
		return nil, fmt.Errorf("%w: %s remaining", ErrNotLockable, canvas.FormatRemaining(e.SecondsRemaining()))
	}

	receipt, err := e.contract.LockCanvas(ctx, e.tokenID, e.account, title)
	metrics.LedgerTransactions.WithLabelValues("lock", metrics.Result(err)).Inc()
	if receipt == nil {
		if err == nil {
			err = errors.New("no receipt")
		}
		return nil, fmt.Errorf("failed to lock canvas %d: %w", e.tokenID, err)
	}
	if err != nil {
		log.Printf("[Editor] Canvas %d lock confirmed in block %d: %v", e.tokenID, receipt.BlockNumber, err)
	}

	e.state.MarkLocked(title)
	return receipt, nil
}

// Contributors lists who painted the canvas. Only available once locked.
func (e *Editor) Contributors(ctx context.Context) ([]canvas.Contributor, error) {
	if !e.state.Meta().IsLocked {
		return nil, ErrNotLocked
	}
	result, err := e.contract.GetContributors(ctx, e.tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributors: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid contributors: %w", err)
	}
	return result.List(), nil
}

// NewCanvas mints the next canvas. The ledger refuses while the newest
// canvas is still open.
func (e *Editor) NewCanvas(ctx context.Context) (uint64, *chain.Receipt, error) {
	id, receipt, err := e.contract.CreateNewCanvas(ctx, e.account)
	metrics.LedgerTransactions.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create canvas: %w", err)
	}
	return id, receipt, nil
}
