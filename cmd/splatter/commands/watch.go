package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchAll          bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream canvas updates and locks as they happen",
	Long: `Stream CanvasUpdated and CanvasLocked events from the ledger.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch the newest canvas
  splatter watch

  # Export every event on the network as JSON
  splatter watch --all --output=json > events.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().BoolVar(&watchAll, "all", false, "Watch every canvas, not just one")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var tokenID uint64
	if !watchAll {
		if tokenID, err = s.canvasID(ctx); err != nil {
			return err
		}
	}

	return watch.StreamUpdates(ctx, s.client, tokenID, outputFormat, cmd.OutOrStdout())
}
