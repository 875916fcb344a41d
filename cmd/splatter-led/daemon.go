package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dyluth/splatter/internal/config"
	"github.com/dyluth/splatter/internal/gallery"
	"github.com/dyluth/splatter/internal/health"
	"github.com/dyluth/splatter/internal/reconciler"
	"github.com/dyluth/splatter/internal/render/matrix"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
)

// daemon drives one LED panel from the ledger: a reconciler keeps the canvas
// state current and the matrix renderer listens to it.
type daemon struct {
	cfg      *config.SplatterConfig
	client   *chain.Client
	state    *canvas.State
	rec      *reconciler.Reconciler
	panel    matrix.Panel
	renderer *matrix.Renderer
	health   *health.Server
}

func newDaemon(ctx context.Context, cfg *config.SplatterConfig, out io.Writer) (*daemon, error) {
	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(redisOpts, cfg.Network, chain.WithLockDuration(cfg.LockDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis not accessible: %w", err)
	}

	tokenID, err := gallery.ResolveCanvasID(ctx, client, cfg.CanvasID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to resolve canvas: %w", err)
	}

	var panel matrix.Panel
	switch cfg.Matrix.Output {
	case "framebuffer":
		panel = matrix.NewFramebufferPanel(cfg.Matrix.Cols, cfg.Matrix.Rows, cfg.Matrix.FramePath)
	default:
		panel = matrix.NewTerminalPanel(out, cfg.Matrix.Cols, cfg.Matrix.Rows)
	}

	state := canvas.NewState()
	renderer, err := matrix.New(state, panel, cfg.Matrix.Brightness)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create matrix renderer: %w", err)
	}

	rec := reconciler.New(client, tokenID, state)
	rec.AddListener(renderer)

	d := &daemon{
		cfg:      cfg,
		client:   client,
		state:    state,
		rec:      rec,
		panel:    panel,
		renderer: renderer,
	}
	d.health = health.NewServer(client, cfg.HealthAddr, func() (uint64, string) {
		return rec.TokenID(), rec.Phase().String()
	})
	return d, nil
}

// Run serves health checks and keeps the panel in sync until ctx ends.
func (d *daemon) Run(ctx context.Context) error {
	defer d.client.Close()

	if err := d.health.Start(); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.health.Shutdown(shutdownCtx)
	}()

	d.logEvent("display_started", map[string]interface{}{
		"scale":  d.renderer.Scale(),
		"output": d.cfg.Matrix.Output,
	})

	err := d.rec.Run(ctx)
	d.rec.Stop()

	d.logEvent("display_stopped", map[string]interface{}{})
	return err
}

// logEvent emits a structured JSON log line.
func (d *daemon) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "splatter-led"
	data["event_type"] = eventType
	data["canvas"] = d.rec.TokenID()

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Display] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
