package commands

import (
	"context"
	"errors"
	"time"

	"github.com/dyluth/splatter/internal/editor"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/internal/watch"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/spf13/cobra"
)

var newTimeout time.Duration

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start the next canvas",
	Long: `Mint the next canvas and wait until it can be read.

A new canvas can only be started when there are none yet or the newest one
is locked.`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

func init() {
	newCmd.Flags().DurationVar(&newTimeout, "timeout", 10*time.Second, "How long to wait for the new canvas")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.cfg.RequireAccount(); err != nil {
		return printer.Error("no account configured", err.Error(),
			[]string{"Pass one on the command line:\n  splatter --account 0x... new"})
	}

	// Minting does not need a loaded canvas; the state is unused.
	ed := editor.New(s.client, canvas.NewState(), 0, s.cfg.Account, s.cfg.LockDuration)

	printer.Step("Creating canvas...\n")
	id, receipt, err := ed.NewCanvas(ctx)
	if err != nil {
		if errors.Is(err, chain.ErrCanvasOpen) {
			return printer.Error(
				"latest canvas is still open",
				"A new canvas can only be started once the newest one is locked.",
				[]string{
					"Lock it when the timer runs out:\n  splatter lock <title>",
					"Check the timer:\n  splatter timer",
				},
			)
		}
		return err
	}

	if _, err := watch.WaitForCanvas(ctx, s.client, id, newTimeout); err != nil {
		return printer.Error("canvas not readable", err.Error(), nil)
	}

	printer.Success("Created canvas %d (block %d)\n", id, receipt.BlockNumber)
	printer.Info("Paint it:\n  splatter --canvas %d paint 0,0,#f00\n", id)
	if s.cfg.CanvasID != 0 && s.cfg.CanvasID != id {
		printer.Warning("%s or --canvas pins canvas_id %d; remove it to follow the newest canvas\n", configPath, s.cfg.CanvasID)
	}
	return nil
}
