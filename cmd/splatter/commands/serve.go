package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/splatter/internal/editor"
	"github.com/dyluth/splatter/internal/liveview"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/internal/reconciler"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	servePaint bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a live browser view of a canvas",
	Long: `Serve a web page showing the canvas, updated live over a websocket as
pixels are committed and the canvas is locked.

With --paint, clicks on the page paint with the configured account (alt-click
picks a color) and POST /commit submits them.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: liveview_addr from config)")
	serveCmd.Flags().BoolVar(&servePaint, "paint", false, "Allow painting from the page")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if servePaint {
		if err := s.cfg.RequireAccount(); err != nil {
			return printer.Error("no account configured", err.Error(),
				[]string{"Pass one on the command line:\n  splatter --account 0x... serve --paint"})
		}
	}

	id, err := s.canvasID(ctx)
	if err != nil {
		return err
	}

	state := canvas.NewState()
	rec := reconciler.New(s.client, id, state)
	hub := liveview.NewHub(id, state)
	rec.AddListener(hub)

	var ed *editor.Editor
	if servePaint {
		ed = editor.New(s.client, state, id, s.cfg.Account, s.cfg.LockDuration)
	}

	addr := serveAddr
	if addr == "" {
		addr = s.cfg.LiveViewAddr
	}
	server := liveview.NewServer(hub, ed, addr)

	runErr := make(chan error, 1)
	go func() { runErr <- rec.Run(ctx) }()

	if err := server.Start(); err != nil {
		rec.Stop()
		return fmt.Errorf("failed to start live view: %w", err)
	}
	printer.Success("Serving canvas %d on http://localhost%s\n", id, addr)

	select {
	case <-ctx.Done():
	case err := <-runErr:
		if err != nil {
			printer.Warning("reconciler stopped: %v\n", err)
		}
	}

	rec.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
