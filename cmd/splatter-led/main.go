package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/splatter/internal/config"
)

func main() {
	// 1. Load configuration; env overrides file
	cfgPath := os.Getenv("SPLATTER_CONFIG")
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load %s: %v\n", cfgPath, err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// 2. Connect and build the display pipeline
	ctx := context.Background()
	d, err := newDaemon(ctx, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("splatter-led showing canvas %d on a %dx%d %s panel (network '%s')\n",
		d.rec.TokenID(), cfg.Matrix.Cols, cfg.Matrix.Rows, cfg.Matrix.Output, cfg.Network)

	// 3. Setup graceful shutdown
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run(runCtx)
	}()

	// 4. Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		fmt.Printf("Received signal %v, shutting down gracefully...\n", sig)
		cancel()
		<-errCh
	case runErr := <-errCh:
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Display error: %v\n", runErr)
			os.Exit(1)
		}
	}

	fmt.Println("splatter-led stopped")
}
