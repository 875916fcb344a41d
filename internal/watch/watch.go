package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
)

// OutputFormat selects how streamed events are written.
type OutputFormat string

const (
	// OutputFormatDefault is human-readable output with timestamps and emojis
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON is line-delimited JSON for programmatic processing
	OutputFormatJSON OutputFormat = "json"
)

// Subscriber opens a canvas event subscription.
type Subscriber interface {
	SubscribeCanvasEvents(ctx context.Context) (*chain.Subscription, error)
}

// Reader reads a full canvas.
type Reader interface {
	Snapshot(ctx context.Context, tokenID uint64) (*chain.Snapshot, error)
}

type eventFormatter interface {
	FormatEvent(e *chain.Event) error
}

type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) FormatEvent(e *chain.Event) error {
	ts := time.Now().Format("15:04:05")
	name := fmt.Sprintf("Canvas #%d", e.TokenID)

	var line string
	switch e.Type {
	case chain.EventCanvasUpdated:
		noun := "pixels"
		if len(e.Positions) == 1 {
			noun = "pixel"
		}
		line = fmt.Sprintf("🎨 %s updated: %d %s (block %d%s)", name, len(e.Positions), noun, e.BlockNumber, formatTx(e.TxHash))
	case chain.EventCanvasLocked:
		title := canvas.Meta{Title: e.Title}.DisplayTitle(e.TokenID)
		line = fmt.Sprintf("🔒 %s locked: %q (block %d%s)", name, title, e.BlockNumber, formatTx(e.TxHash))
	default:
		line = fmt.Sprintf("❓ %s: unknown event %s", name, e.Type)
	}

	_, err := fmt.Fprintf(f.writer, "[%s] %s\n", ts, line)
	return err
}

type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatEvent(e *chain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

func newFormatter(format OutputFormat, w io.Writer) (eventFormatter, error) {
	switch format {
	case OutputFormatDefault:
		return &defaultFormatter{writer: w}, nil
	case OutputFormatJSON:
		return &jsonFormatter{writer: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// StreamUpdates writes every CanvasUpdated and CanvasLocked event to w until
// ctx is cancelled. tokenID 0 streams all canvases.
func StreamUpdates(ctx context.Context, client Subscriber, tokenID uint64, format OutputFormat, w io.Writer) error {
	formatter, err := newFormatter(format, w)
	if err != nil {
		return err
	}

	sub, err := client.SubscribeCanvasEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to canvas events: %w", err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if tokenID != 0 && e.TokenID != tokenID {
				continue
			}
			if err := formatter.FormatEvent(e); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}

		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			if format == OutputFormatDefault {
				fmt.Fprintf(w, "⚠️  %v\n", err)
			}
		}
	}
}

// WaitForCanvas polls until the canvas can be read, for use right after
// createNewCanvas. Polls every 200ms for at most timeout.
func WaitForCanvas(ctx context.Context, client Reader, tokenID uint64, timeout time.Duration) (*chain.Snapshot, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		snap, err := client.Snapshot(ctx, tokenID)
		if err == nil {
			return snap, nil
		}
		if !chain.IsNotFound(err) {
			return nil, fmt.Errorf("failed to read canvas %d: %w", tokenID, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for canvas %d after %v", tokenID, timeout)
		case <-ticker.C:
		}
	}
}

func formatTx(hash string) string {
	if hash == "" {
		return ""
	}
	if len(hash) > 10 {
		hash = hash[:10] + "…"
	}
	return ", tx " + hash
}
