package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/splatter/internal/editor"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/palette"
	"github.com/spf13/cobra"
)

var paintDryRun bool

var paintCmd = &cobra.Command{
	Use:   "paint X,Y,COLOR [X,Y,COLOR...]",
	Short: "Paint pixels and commit them in one transaction",
	Long: `Paint one or more pixels and commit them to the ledger.

Each argument is a pixel as X,Y,COLOR with X and Y in [0, 15] and COLOR
either "#rgb" or a palette index in [0, 4095]. Pixels are committed in
argument order; when the same cell is painted twice the last one wins.

Examples:
  # Paint a red pixel in the top-left corner
  splatter paint 0,0,#f00

  # Paint a diagonal, preview only
  splatter paint 0,0,#fff 1,1,#fff 2,2,#fff --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPaint,
}

func init() {
	paintCmd.Flags().BoolVar(&paintDryRun, "dry-run", false, "Print the transaction without committing")
	rootCmd.AddCommand(paintCmd)
}

// pixelArg is one parsed X,Y,COLOR argument.
type pixelArg struct {
	X, Y  int
	Color palette.ColorIndex
}

func parsePixelArg(s string) (pixelArg, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return pixelArg{}, fmt.Errorf("invalid pixel %q: want X,Y,COLOR", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return pixelArg{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return pixelArg{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	if _, err := canvas.Position(x, y); err != nil {
		return pixelArg{}, err
	}
	c, err := palette.Parse(strings.TrimSpace(parts[2]))
	if err != nil {
		return pixelArg{}, err
	}
	return pixelArg{X: x, Y: y, Color: c}, nil
}

func runPaint(cmd *cobra.Command, args []string) error {
	pixels := make([]pixelArg, 0, len(args))
	for _, arg := range args {
		p, err := parsePixelArg(arg)
		if err != nil {
			return printer.Error("invalid pixel", err.Error(),
				[]string{"Pixels are X,Y,COLOR, e.g.:\n  splatter paint 3,4,#0af"})
		}
		pixels = append(pixels, p)
	}

	ctx := context.Background()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ed, err := s.openEditor(ctx, !paintDryRun)
	if err != nil {
		return err
	}

	for _, p := range pixels {
		if err := ed.Select(p.Color); err != nil {
			return err
		}
		if err := ed.Paint(p.X, p.Y); err != nil {
			if errors.Is(err, canvas.ErrLockedCanvas) {
				return printer.Error(
					fmt.Sprintf("canvas %d is locked", ed.TokenID()),
					"Locked canvases cannot be painted.",
					[]string{"Start a new canvas:\n  splatter new"},
				)
			}
			return err
		}
	}

	colors, positions := ed.State().PendingPatch()
	if paintDryRun {
		printer.Info("Would commit %d pixels to canvas %d:\n", len(positions), ed.TokenID())
		for i, pos := range positions {
			printer.Info("  %3d  %s\n", pos, printer.Swatch(colors[i]))
		}
		return nil
	}

	printer.Step("Committing %d pixels to canvas %d...\n", len(positions), ed.TokenID())
	receipt, err := ed.Commit(ctx)
	if err != nil {
		if errors.Is(err, editor.ErrNothingToCommit) {
			return printer.Error("nothing to commit", err.Error(), nil)
		}
		return printer.ErrorWithContext(
			"commit failed",
			err.Error(),
			map[string]string{"Canvas": strconv.FormatUint(ed.TokenID(), 10), "Network": s.cfg.Network},
			nil,
		)
	}

	printer.Success("Committed %d pixels (block %d, tx %s)\n", len(positions), receipt.BlockNumber, receipt.TxHash)
	return nil
}
