package gallery

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dyluth/splatter/pkg/chain"
)

// OutputFormat specifies how to format the canvas list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs one canvas record per line
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Status filter values.
const (
	StatusAny    = ""
	StatusOpen   = "open"
	StatusLocked = "locked"
)

// FilterCriteria defines filtering options for the list command.
// All filters are ANDed together.
type FilterCriteria struct {
	Status    string    // StatusOpen, StatusLocked or StatusAny
	TitleGlob string    // Glob pattern for the title, empty = no filter
	Since     time.Time // Created at or after, zero = no bound
	Until     time.Time // Created before, zero = no bound
}

// Validate checks the status value and glob syntax.
func (fc *FilterCriteria) Validate() error {
	switch fc.Status {
	case StatusAny, StatusOpen, StatusLocked:
	default:
		return fmt.Errorf("invalid status filter: %s (must be 'open' or 'locked')", fc.Status)
	}
	if fc.TitleGlob != "" {
		if _, err := filepath.Match(fc.TitleGlob, ""); err != nil {
			return fmt.Errorf("invalid title pattern %q: %w", fc.TitleGlob, err)
		}
	}
	return nil
}

func (fc *FilterCriteria) matchesFilter(d *chain.CanvasData) bool {
	if fc.Status == StatusOpen && d.IsLocked {
		return false
	}
	if fc.Status == StatusLocked && !d.IsLocked {
		return false
	}

	created := time.Unix(d.CreatedAt, 0)
	if !fc.Since.IsZero() && created.Before(fc.Since) {
		return false
	}
	if !fc.Until.IsZero() && !created.Before(fc.Until) {
		return false
	}

	// Open canvases have no title yet, so they never match a title pattern
	if fc.TitleGlob != "" {
		matched, err := filepath.Match(fc.TitleGlob, d.Title)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

// Lister reads every minted canvas.
type Lister interface {
	ListCanvases(ctx context.Context) ([]*chain.CanvasData, error)
}

// ListCanvases writes every canvas of the network to w, oldest first.
// Applies filter criteria if provided.
func ListCanvases(ctx context.Context, client Lister, network string, format OutputFormat, filters *FilterCriteria, w io.Writer) error {
	if filters != nil {
		if err := filters.Validate(); err != nil {
			return err
		}
	}

	all, err := client.ListCanvases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list canvases: %w", err)
	}

	canvases := make([]*chain.CanvasData, 0, len(all))
	for _, d := range all {
		if filters != nil && !filters.matchesFilter(d) {
			continue
		}
		canvases = append(canvases, d)
	}

	switch format {
	case OutputFormatDefault:
		FormatTable(w, canvases, network)
		if CanCreate(all) {
			fmt.Fprintf(w, "\nThe latest canvas is locked: run 'splatter new' to start the next one\n")
		}
	case OutputFormatJSONL:
		if err := FormatJSONL(w, canvases); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}

// CanCreate reports whether a new canvas may be minted: there are no canvases
// yet or the newest one is locked. canvases must be ordered oldest first.
func CanCreate(canvases []*chain.CanvasData) bool {
	if len(canvases) == 0 {
		return true
	}
	return canvases[len(canvases)-1].IsLocked
}
