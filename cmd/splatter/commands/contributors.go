package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyluth/splatter/internal/editor"
	"github.com/dyluth/splatter/internal/gallery"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/spf13/cobra"
)

var contributorsJSON bool

var contributorsCmd = &cobra.Command{
	Use:   "contributors",
	Short: "Show who painted a locked canvas",
	Long: `List every address that committed pixels to a locked canvas, in the
order they first contributed, with their pixel counts.`,
	Args: cobra.NoArgs,
	RunE: runContributors,
}

func init() {
	contributorsCmd.Flags().BoolVar(&contributorsJSON, "json", false, "Write contributors as JSON")
	rootCmd.AddCommand(contributorsCmd)
}

func runContributors(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ed, err := s.openEditor(ctx, false)
	if err != nil {
		return err
	}

	list, err := ed.Contributors(ctx)
	if errors.Is(err, editor.ErrNotLocked) {
		return printer.Error(
			fmt.Sprintf("canvas %d is still open", ed.TokenID()),
			"Contributors are shown once the canvas is locked.",
			[]string{"Check when it can be locked:\n  splatter timer"},
		)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if contributorsJSON {
		return gallery.FormatSingleJSON(out, list)
	}

	title := ed.State().Meta().DisplayTitle(ed.TokenID())
	if len(list) == 0 {
		fmt.Fprintf(out, "Nobody painted %q\n", title)
		return nil
	}

	fmt.Fprintf(out, "Contributors to %q:\n\n", title)
	fmt.Fprintf(out, "%-42s %s\n", "ADDRESS", "PIXELS")
	var total uint64
	for _, c := range list {
		fmt.Fprintf(out, "%-42s %d\n", c.Address, c.PixelCount)
		total += c.PixelCount
	}
	fmt.Fprintf(out, "\n%d pixels by %d contributors\n", total, len(list))
	return nil
}
