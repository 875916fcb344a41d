package canvas

import (
	"fmt"
	"sync"

	"github.com/dyluth/splatter/pkg/palette"
)

// State is the canonical in-memory canvas. It is owned by the view that
// created it and shared by pointer with the reconciler and the renderers.
//
// Every mutation holds the write lock for its whole duration, so one mutation
// completes before the next begins. Hydrate and ApplyConfirmedPatch are applied
// in call order; a patch describing data older than the last Hydrate will
// overwrite newer committed values. That race is accepted: there is no causal
// ordering between snapshots and notifications.
type State struct {
	mu    sync.RWMutex
	meta  Meta
	grid  []palette.ColorIndex
	edits []PendingEdit
}

// NewState returns an unlocked canvas with an all-unpainted grid.
func NewState() *State {
	return &State{
		grid:  make([]palette.ColorIndex, Size),
		edits: []PendingEdit{},
	}
}

// Hydrate replaces the metadata and committed grid wholesale. Uncommitted
// edits are left untouched unless the snapshot is locked, in which case they
// are discarded.
func (s *State) Hydrate(meta Meta, grid []palette.ColorIndex) error {
	if len(grid) != Size {
		return fmt.Errorf("%w: grid has %d cells, want %d", ErrMalformedSnapshot, len(grid), Size)
	}
	for i, c := range grid {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: cell %d: %v", ErrMalformedSnapshot, i, err)
		}
	}

	next := make([]palette.ColorIndex, Size)
	copy(next, grid)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
	s.grid = next
	if meta.IsLocked {
		s.edits = []PendingEdit{}
	}
	return nil
}

// AppendEdit records a locally painted pixel.
func (s *State) AppendEdit(x, y int, c palette.ColorIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta.IsLocked {
		return ErrLockedCanvas
	}
	if _, err := Position(x, y); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	s.edits = append(s.edits, PendingEdit{X: x, Y: y, Color: c})
	return nil
}

// UndoLast drops the most recent uncommitted edit. It is a no-op when there
// are no edits.
func (s *State) UndoLast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.edits) == 0 {
		return
	}
	s.edits = s.edits[:len(s.edits)-1]
}

// ClearEdits empties the uncommitted edit list.
func (s *State) ClearEdits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = []PendingEdit{}
}

// TrimCommitted removes the edits that were submitted in a confirmed commit.
// Only the leading run of edits matching submitted is dropped, so edits
// appended while the commit was in flight are kept. Returns the number removed.
func (s *State) TrimCommitted(submitted []PendingEdit) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for n < len(submitted) && n < len(s.edits) && s.edits[n] == submitted[n] {
		n++
	}
	s.edits = append([]PendingEdit{}, s.edits[n:]...)
	return n
}

// MarkLocked applies a lock observed on the ledger: the canvas becomes
// read-only, its title is fixed and uncommitted edits are discarded.
func (s *State) MarkLocked(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.IsLocked = true
	s.meta.Title = title
	s.edits = []PendingEdit{}
}

// ApplyConfirmedPatch writes confirmed colors into the committed grid. Pairs
// are applied in order, so a later pair wins over an earlier one at the same
// position. The patch is validated as a whole first; if any pair is invalid
// nothing is written.
func (s *State) ApplyConfirmedPatch(colors []palette.ColorIndex, positions []int) error {
	if len(colors) != len(positions) {
		return fmt.Errorf("%w: %d colors for %d positions", ErrMalformedPatch, len(colors), len(positions))
	}
	for i := range positions {
		if positions[i] < 0 || positions[i] >= Size {
			return fmt.Errorf("%w: position %d at index %d", ErrMalformedPatch, positions[i], i)
		}
		if err := colors[i].Validate(); err != nil {
			return fmt.Errorf("%w: color at index %d: %v", ErrMalformedPatch, i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range positions {
		s.grid[p] = colors[i]
	}
	return nil
}

// EffectiveColorAt returns the color to render at (x, y): the newest pending
// edit there if one exists, otherwise the committed value.
func (s *State) EffectiveColorAt(x, y int) (palette.ColorIndex, error) {
	pos, err := Position(x, y)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.edits) - 1; i >= 0; i-- {
		if s.edits[i].X == x && s.edits[i].Y == y {
			return s.edits[i].Color, nil
		}
	}
	return s.grid[pos], nil
}

// EffectiveGrid returns the effective color of every position in one pass.
func (s *State) EffectiveGrid() []palette.ColorIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]palette.ColorIndex, Size)
	copy(out, s.grid)
	for _, e := range s.edits {
		out[e.Position()] = e.Color
	}
	return out
}

// CommittedGrid returns a copy of the committed grid.
func (s *State) CommittedGrid() []palette.ColorIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]palette.ColorIndex, Size)
	copy(out, s.grid)
	return out
}

// Meta returns the current metadata.
func (s *State) Meta() Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Edits returns a copy of the uncommitted edits, oldest first.
func (s *State) Edits() []PendingEdit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PendingEdit, len(s.edits))
	copy(out, s.edits)
	return out
}

// PendingPatch returns the uncommitted edits as the parallel sequences sent to
// commitPixels. Shadowed edits are kept; deduplication is the ledger's
// concern.
func (s *State) PendingPatch() (colors []palette.ColorIndex, positions []int) {
	return PatchOf(s.Edits())
}

// PatchOf splits edits into parallel color and position sequences.
func PatchOf(edits []PendingEdit) (colors []palette.ColorIndex, positions []int) {
	colors = make([]palette.ColorIndex, len(edits))
	positions = make([]int, len(edits))
	for i, e := range edits {
		colors[i] = e.Color
		positions[i] = e.Position()
	}
	return colors, positions
}
