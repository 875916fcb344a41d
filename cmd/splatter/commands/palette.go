package commands

import (
	"fmt"
	"strconv"

	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/internal/render/grid"
	"github.com/dyluth/splatter/pkg/palette"
	"github.com/spf13/cobra"
)

var paletteSelected string

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "Browse the 4096-color palette",
	Long: `Browse the 4096-color palette.

Colors are written "#rgb" (one hex digit per channel) or as an index in
[0, 4095]. Index 0 is "unpainted" and cannot be used as a brush.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var paletteShowCmd = &cobra.Command{
	Use:   "show COLOR",
	Short: "Show a color with its neighbours",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseColorArg(args[0])
		if err != nil {
			return err
		}
		r, g, b := palette.Channels(c)
		x, y := palette.CellOf(c)
		printer.Println(printer.Swatch(c))
		printer.Printf("  channels  r=%d g=%d b=%d\n", r, g, b)
		printer.Printf("  picker    (%d,%d)\n", x, y)
		printer.Printf("  prev      %s\n", printer.Swatch(palette.Prev(c)))
		printer.Printf("  next      %s\n", printer.Swatch(palette.Next(c)))
		return nil
	},
}

var paletteNextCmd = &cobra.Command{
	Use:   "next COLOR",
	Short: "Print the color after COLOR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseColorArg(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), palette.Decode(palette.Next(c)))
		return nil
	},
}

var palettePrevCmd = &cobra.Command{
	Use:   "prev COLOR",
	Short: "Print the color before COLOR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseColorArg(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), palette.Decode(palette.Prev(c)))
		return nil
	},
}

var paletteSVGCmd = &cobra.Command{
	Use:   "svg",
	Short: "Write the 64×64 color picker as SVG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var selected palette.ColorIndex
		if paletteSelected != "" {
			c, err := parseColorArg(paletteSelected)
			if err != nil {
				return err
			}
			selected = c
		}
		return grid.WritePaletteSVG(cmd.OutOrStdout(), selected)
	},
}

var palettePickCmd = &cobra.Command{
	Use:   "pick RELX RELY",
	Short: "Resolve a press on the color picker to a color",
	Long: `Resolve a press on the color picker to a brush color. RELX and RELY are
relative to the picker, in [0, 1).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		relX, errX := strconv.ParseFloat(args[0], 64)
		relY, errY := strconv.ParseFloat(args[1], 64)
		if errX != nil || errY != nil {
			return printer.Error("invalid position", "RELX and RELY must be numbers in [0, 1).", nil)
		}
		c, err := grid.PaletteAt(relX, relY)
		if err != nil {
			return printer.Error("no color there", err.Error(), nil)
		}
		fmt.Fprintln(cmd.OutOrStdout(), palette.Decode(c))
		return nil
	},
}

func parseColorArg(s string) (palette.ColorIndex, error) {
	c, err := palette.Parse(s)
	if err != nil {
		return 0, printer.Error("invalid color", err.Error(),
			[]string{`Use "#rgb" (e.g. "#0af") or an index in [0, 4095]`})
	}
	return c, nil
}

func init() {
	paletteSVGCmd.Flags().StringVar(&paletteSelected, "selected", "", "Outline this color")
	paletteCmd.AddCommand(paletteShowCmd, paletteNextCmd, palettePrevCmd, paletteSVGCmd, palettePickCmd)
	rootCmd.AddCommand(paletteCmd)
}
