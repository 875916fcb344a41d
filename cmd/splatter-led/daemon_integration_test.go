//go:build integration

package main

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"testing"
	"time"

	"github.com/dyluth/splatter/internal/config"
	"github.com/dyluth/splatter/internal/render/matrix"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/dyluth/splatter/pkg/palette"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container for testing.
func setupRedis(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	addr := fmt.Sprintf("%s:%s", host, port.Port())

	cleanup := func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}

	return addr, cleanup
}

// TestDaemon_RealRedis runs the display pipeline against a real Redis server.
func TestDaemon_RealRedis(t *testing.T) {
	addr, cleanup := setupRedis(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := chain.NewClient(&redis.Options{Addr: addr}, "led-test")
	require.NoError(t, err)
	defer client.Close()

	id, _, err := client.CreateNewCanvas(ctx, painter)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.RedisURL = "redis://" + addr + "/0"
	cfg.Network = "led-test"
	cfg.CanvasID = id
	cfg.HealthAddr = "127.0.0.1:0"
	cfg.Matrix = &config.MatrixConfig{Output: "framebuffer"}
	require.NoError(t, cfg.Validate())

	d, err := newDaemon(ctx, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	panel := d.panel.(*matrix.FramebufferPanel)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- d.Run(runCtx) }()

	// Wait for the initial load before committing
	require.Eventually(t, func() bool { return panel.Syncs() > 0 }, 5*time.Second, 50*time.Millisecond)

	_, err = client.CommitPixels(ctx, id, painter, []palette.ColorIndex{0x00f}, []int{255})
	require.NoError(t, err)

	blue := color.NRGBA{B: 0xff, A: 0xff}
	require.Eventually(t, func() bool {
		return panel.Frame().NRGBAAt(63, 63) == blue
	}, 5*time.Second, 50*time.Millisecond)

	stop()
	require.NoError(t, <-done)
}
