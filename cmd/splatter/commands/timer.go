package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/spf13/cobra"
)

var timerFollow bool

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Show how long until a canvas can be locked",
	Long: `Show the time left before the canvas can be locked, as "X hours Y minutes".

With --follow the countdown is refreshed every second until the canvas
becomes lockable.`,
	Args: cobra.NoArgs,
	RunE: runTimer,
}

func init() {
	timerCmd.Flags().BoolVarP(&timerFollow, "follow", "f", false, "Keep counting down until lockable")
	rootCmd.AddCommand(timerCmd)
}

func runTimer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ed, err := s.openEditor(ctx, false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	name := ed.State().Meta().DisplayTitle(ed.TokenID())
	if ed.State().Meta().IsLocked {
		fmt.Fprintf(out, "%s is locked\n", name)
		return nil
	}

	timer := canvas.NewLockTimer(ed.State(), s.cfg.LockDuration)
	if !timerFollow {
		printRemaining(cmd, name, timer.Remaining())
		return nil
	}

	for remaining := range timer.Run(ctx) {
		printRemaining(cmd, name, remaining)
		if remaining <= 0 {
			return nil
		}
	}
	return nil
}

func printRemaining(cmd *cobra.Command, name string, remaining float64) {
	if remaining <= 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s can be locked now\n", name)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s can be locked in %s\n", name, canvas.FormatRemaining(remaining))
}
