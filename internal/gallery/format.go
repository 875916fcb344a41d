package gallery

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/splatter/pkg/chain"
)

// FormatTable writes canvases as a table with columns ID, STATUS, AGE and TITLE.
// Returns the number of canvases formatted.
func FormatTable(w io.Writer, canvases []*chain.CanvasData, network string) int {
	if len(canvases) == 0 {
		fmt.Fprintf(w, "No canvases found on network '%s'\n", network)
		return 0
	}

	fmt.Fprintf(w, "Canvases on network '%s':\n\n", network)

	fmt.Fprintf(w, "%-6s %-8s %-8s %s\n", "ID", "STATUS", "AGE", "TITLE")
	fmt.Fprintf(w, "%-6s %-8s %-8s %s\n", "------", "--------", "--------", "----------------------------------------")

	for _, d := range canvases {
		fmt.Fprintf(w, "%-6d %-8s %-8s %s\n",
			d.TokenID,
			formatStatus(d.IsLocked),
			formatAge(d.CreatedAt),
			formatTitle(d),
		)
	}

	countMsg := "canvas"
	if len(canvases) != 1 {
		countMsg = "canvases"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(canvases), countMsg)

	return len(canvases)
}

// FormatJSONL writes canvases as line-delimited JSON.
func FormatJSONL(w io.Writer, canvases []*chain.CanvasData) error {
	for _, d := range canvases {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal canvas to JSON: %w", err)
		}

		_, err = fmt.Fprintf(w, "%s\n", string(data))
		if err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatSingleJSON writes v as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal canvas to JSON: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	fmt.Fprintln(w)

	return nil
}

func formatStatus(locked bool) string {
	if locked {
		return "locked"
	}
	return "open"
}

// formatTitle truncates long titles. Open canvases show "-".
func formatTitle(d *chain.CanvasData) string {
	if !d.IsLocked {
		return "-"
	}
	title := d.Meta().DisplayTitle(d.TokenID)
	if len(title) > 40 {
		return title[:37] + "..."
	}
	return title
}

// formatAge formats a Unix timestamp in seconds as relative time like "2m ago".
func formatAge(createdAt int64) string {
	if createdAt == 0 {
		return "-"
	}

	diff := time.Since(time.Unix(createdAt, 0))

	if diff < time.Minute {
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	} else {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
