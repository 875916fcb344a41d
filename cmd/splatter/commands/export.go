package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dyluth/splatter/internal/export"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/spf13/cobra"
)

var exportScale int

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export a canvas as an image or a PDF poster",
	Long: `Export the committed canvas. The file extension picks the format:

  .png, .jpg, .gif - Image upscaled by --scale (nearest neighbour)
  .pdf             - A4 poster with title and, once locked, contributors

Examples:
  splatter export canvas.png --scale 32
  splatter --canvas 2 export poster.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().IntVar(&exportScale, "scale", 16, fmt.Sprintf("Image pixels per canvas pixel (1..%d)", export.MaxScale))
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".pdf":
	default:
		return printer.Error("unsupported format",
			fmt.Sprintf("Cannot export to %q.", ext),
			[]string{"Use a .png, .jpg, .gif or .pdf file name"})
	}

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
	state := ed.State()

	if ext != ".pdf" {
		if err := export.SavePNG(path, state.CommittedGrid(), exportScale); err != nil {
			return printer.Error("export failed", err.Error(), nil)
		}
		printer.Success("Wrote %s\n", path)
		return nil
	}

	poster := export.Poster{
		TokenID: ed.TokenID(),
		Meta:    state.Meta(),
		Grid:    state.CommittedGrid(),
	}
	if poster.Meta.IsLocked {
		if poster.Contributors, err = ed.Contributors(ctx); err != nil {
			return err
		}
	}
	if err := export.SavePDF(path, poster); err != nil {
		return printer.Error("export failed", err.Error(), nil)
	}
	printer.Success("Wrote %s\n", path)
	return nil
}
