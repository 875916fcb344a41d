package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/splatter/internal/gallery"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/internal/render/grid"
	"github.com/dyluth/splatter/internal/render/matrix"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/spf13/cobra"
)

var (
	showSVG  bool
	showJSON bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Draw a canvas in the terminal",
	Long: `Draw the committed canvas in the terminal, one colored block per pixel.

Output Formats:
  (default) - Truecolor blocks followed by title, status and lock timer
  --svg     - SVG document with one rect per painted cell
  --json    - Canvas data and pixels as pretty-printed JSON

Examples:
  # Show the newest canvas
  splatter show

  # Save canvas 3 as SVG
  splatter show --canvas 3 --svg > canvas.svg`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showSVG, "svg", false, "Write the canvas as SVG")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Write the canvas as JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	if showSVG && showJSON {
		return printer.Error("conflicting flags", "--svg and --json cannot be combined.", nil)
	}

	ctx := context.Background()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if showJSON {
		id, err := s.canvasID(ctx)
		if err != nil {
			return err
		}
		if err := gallery.GetCanvas(ctx, s.client, id, cmd.OutOrStdout()); err != nil {
			if gallery.IsNotFound(err) {
				return printer.Error(err.Error(), "The canvas does not exist on this network.",
					[]string{"List canvases:\n  splatter list"})
			}
			return err
		}
		return nil
	}

	ed, err := s.openEditor(ctx, false)
	if err != nil {
		return err
	}
	state := ed.State()

	if showSVG {
		return grid.New(state).WriteSVG(cmd.OutOrStdout())
	}

	out := cmd.OutOrStdout()
	panel := matrix.NewTerminalPanel(out, canvas.Width, canvas.Height)
	renderer, err := matrix.New(state, panel, 100)
	if err != nil {
		return err
	}
	if err := renderer.Load(); err != nil {
		return err
	}

	meta := state.Meta()
	fmt.Fprintf(out, "\n%s\n", meta.DisplayTitle(ed.TokenID()))
	if meta.IsLocked {
		fmt.Fprintf(out, "🔒 locked\n")
		return nil
	}
	remaining := canvas.SecondsRemaining(meta.CreatedAt, time.Now(), s.cfg.LockDuration)
	if remaining > 0 {
		fmt.Fprintf(out, "open, lockable in %s\n", canvas.FormatRemaining(remaining))
	} else {
		fmt.Fprintf(out, "open, lockable now\n")
	}
	return nil
}
