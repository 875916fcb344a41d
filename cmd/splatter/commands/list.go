package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/splatter/internal/gallery"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	listOutputFormat string
	listStatus       string
	listTitle        string
	listSince        string
	listUntil        string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every canvas on the network",
	Long: `List every canvas, oldest first, with its status, age and title.

Output Formats:
  default - Human-readable table
  jsonl   - Line-delimited JSON, one canvas per line

Filters:
  --status - "open" or "locked"
  --title  - Glob pattern on the title ("Sun*")
  --since  - Created at or after: duration ("24h") or RFC3339 timestamp
  --until  - Created before: duration or RFC3339 timestamp

Examples:
  splatter list
  splatter list --status locked --output jsonl | jq .title
  splatter list --since 24h`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: open or locked")
	listCmd.Flags().StringVar(&listTitle, "title", "", "Filter by title (glob pattern)")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only canvases created at or after this time")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Only canvases created before this time")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	var outputFormat gallery.OutputFormat
	switch listOutputFormat {
	case "default":
		outputFormat = gallery.OutputFormatDefault
	case "jsonl":
		outputFormat = gallery.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	since, until, err := timespec.ParseRange(listSince, listUntil, time.Now())
	if err != nil {
		return printer.Error("invalid time range", err.Error(), []string{"Use a duration like '24h' or an RFC3339 timestamp"})
	}

	filters := &gallery.FilterCriteria{Status: listStatus, TitleGlob: listTitle, Since: since, Until: until}
	if err := filters.Validate(); err != nil {
		return printer.Error("invalid filter", err.Error(), nil)
	}

	ctx := context.Background()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return gallery.ListCanvases(ctx, s.client, s.cfg.Network, outputFormat, filters, cmd.OutOrStdout())
}
