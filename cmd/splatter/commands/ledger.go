package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/splatter/internal/ledger"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	ledgerPort  int
	ledgerImage string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Run a local development ledger in Docker",
	Long: `Start, stop and inspect a Redis ledger container for the configured network.

The container is bound to 127.0.0.1 and holds canvases only while it runs.`,
}

var ledgerUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the local ledger",
	Long: `Start a Redis container for the configured network and wait until it answers.

Examples:
  splatter ledger up
  splatter --network gallery ledger up --port 6380`,
	Args: cobra.NoArgs,
	RunE: runLedgerUp,
}

var ledgerDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the local ledger",
	Long: `Stop and remove the network's ledger container. Every canvas it held is lost.
The command does not prompt for confirmation and executes immediately.`,
	Args: cobra.NoArgs,
	RunE: runLedgerDown,
}

var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local ledger container",
	Args:  cobra.NoArgs,
	RunE:  runLedgerStatus,
}

func init() {
	ledgerUpCmd.Flags().IntVar(&ledgerPort, "port", 6379, "Host port for Redis")
	ledgerUpCmd.Flags().StringVar(&ledgerImage, "image", ledger.DefaultImage, "Redis image")
	ledgerCmd.AddCommand(ledgerUpCmd, ledgerDownCmd, ledgerStatusCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cli, err := ledger.NewDockerClient(ctx)
	if err != nil {
		return printer.Error("Docker not available", err.Error(), nil)
	}
	defer cli.Close()

	printer.Step("Starting ledger for network '%s'...\n", cfg.Network)
	info, err := ledger.Up(ctx, cli, ledger.Options{Network: cfg.Network, Image: ledgerImage, Port: ledgerPort})
	if errors.Is(err, ledger.ErrAlreadyRunning) {
		return printer.Error(
			fmt.Sprintf("ledger for network '%s' already running", cfg.Network),
			fmt.Sprintf("Container %s serves %s", info.Name, info.RedisURL()),
			[]string{"Stop it first:\n  splatter ledger down"},
		)
	}
	if err != nil {
		return printer.Error("failed to start ledger", err.Error(), nil)
	}

	client, err := chain.NewClient(&redis.Options{Addr: fmt.Sprintf("127.0.0.1:%d", info.Port)}, cfg.Network)
	if err != nil {
		return fmt.Errorf("failed to create ledger client: %w", err)
	}
	defer client.Close()

	if err := ledger.WaitReady(ctx, client, 30*time.Second); err != nil {
		return printer.Error("ledger did not start", err.Error(), []string{"Check the container logs:\n  docker logs " + info.Name})
	}

	printer.Success("Ledger running: %s (%s)\n", info.Name, info.RedisURL())
	if cfg.RedisURL != info.RedisURL() {
		printer.Info("\nPoint splatter at it:\n  redis_url: %s   (in %s)\n  or: export REDIS_URL=%s\n", info.RedisURL(), configPath, info.RedisURL())
	}
	return nil
}

func runLedgerDown(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cli, err := ledger.NewDockerClient(ctx)
	if err != nil {
		return printer.Error("Docker not available", err.Error(), nil)
	}
	defer cli.Close()

	info, err := ledger.Down(ctx, cli, cfg.Network)
	if errors.Is(err, ledger.ErrNotRunning) {
		return printer.Error(
			fmt.Sprintf("no ledger for network '%s'", cfg.Network),
			"No ledger container found for this network.",
			[]string{"Start one first:\n  splatter ledger up"},
		)
	}
	if err != nil {
		return err
	}

	printer.Success("Ledger %s removed\n", info.Name)
	return nil
}

func runLedgerStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cli, err := ledger.NewDockerClient(ctx)
	if err != nil {
		return printer.Error("Docker not available", err.Error(), nil)
	}
	defer cli.Close()

	info, err := ledger.Find(ctx, cli, cfg.Network)
	if err != nil {
		return err
	}
	if info == nil {
		printer.Info("No ledger container for network '%s'\n", cfg.Network)
		return nil
	}
	printer.Info("%s  %s  %s  run %s\n", info.Name, info.State, info.RedisURL(), info.RunID)
	return nil
}
