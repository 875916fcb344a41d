package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyluth/splatter/internal/editor"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock TITLE",
	Short: "Lock a canvas under a title",
	Long: `Lock the canvas so no more pixels can be committed, and give it a title.

A canvas can only be locked once its lock window (lock_duration) has passed.
Use 'splatter timer' to see how long is left.

Examples:
  splatter lock "Sunset over the harbour"`,
	Args: cobra.ExactArgs(1),
	RunE: runLock,
}

func init() {
	rootCmd.AddCommand(lockCmd)
}

func runLock(cmd *cobra.Command, args []string) error {
	title := args[0]
	if len(title) > chain.MaxTitleLength {
		return printer.Error("title too long",
			fmt.Sprintf("Titles are at most %d bytes, got %d.", chain.MaxTitleLength, len(title)), nil)
	}

	ctx := context.Background()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ed, err := s.openEditor(ctx, true)
	if err != nil {
		return err
	}

	receipt, err := ed.Lock(ctx, title)
	switch {
	case errors.Is(err, canvas.ErrLockedCanvas), errors.Is(err, chain.ErrCanvasLocked):
		return printer.Error(fmt.Sprintf("canvas %d is already locked", ed.TokenID()), "", nil)
	case errors.Is(err, editor.ErrNotLockable), errors.Is(err, chain.ErrLockTooEarly):
		return printer.Error(
			fmt.Sprintf("canvas %d cannot be locked yet", ed.TokenID()),
			fmt.Sprintf("Time left: %s", canvas.FormatRemaining(ed.SecondsRemaining())),
			[]string{"Follow the countdown:\n  splatter timer"},
		)
	case err != nil:
		return err
	}

	printer.Success("Locked canvas %d as %q (block %d)\n", ed.TokenID(), title, receipt.BlockNumber)
	return nil
}
