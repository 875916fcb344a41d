package main

import (
	"bytes"
	"context"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/splatter/internal/config"
	"github.com/dyluth/splatter/internal/reconciler"
	"github.com/dyluth/splatter/internal/render/matrix"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/dyluth/splatter/pkg/palette"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const painter = "0x1111111111111111111111111111111111111111"

func testConfig(t *testing.T, redisAddr string) *config.SplatterConfig {
	cfg := config.Default()
	cfg.RedisURL = "redis://" + redisAddr + "/0"
	cfg.Network = "led-test"
	cfg.HealthAddr = "127.0.0.1:0"
	cfg.Matrix = &config.MatrixConfig{
		Output:     "framebuffer",
		FramePath:  filepath.Join(t.TempDir(), "frame.png"),
		Brightness: 100,
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewDaemon(t *testing.T) {
	ctx := context.Background()

	t.Run("fails without canvases", func(t *testing.T) {
		mr := miniredis.RunT(t)
		_, err := newDaemon(ctx, testConfig(t, mr.Addr()), &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no canvases minted yet")
	})

	t.Run("fails when redis is down", func(t *testing.T) {
		cfg := testConfig(t, "127.0.0.1:9")
		_, err := newDaemon(ctx, cfg, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis not accessible")
	})

	t.Run("terminal output", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := chain.NewClient(&redis.Options{Addr: mr.Addr()}, "led-test")
		require.NoError(t, err)
		defer client.Close()
		_, _, err = client.CreateNewCanvas(ctx, painter)
		require.NoError(t, err)

		cfg := testConfig(t, mr.Addr())
		cfg.Matrix = &config.MatrixConfig{Rows: 32, Cols: 32}
		require.NoError(t, cfg.Validate())

		d, err := newDaemon(ctx, cfg, &bytes.Buffer{})
		require.NoError(t, err)
		defer d.client.Close()

		assert.IsType(t, &matrix.TerminalPanel{}, d.panel)
		assert.Equal(t, 2, d.renderer.Scale())
		assert.Equal(t, uint64(1), d.rec.TokenID())
	})
}

func TestDaemon_FollowsLedger(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := chain.NewClient(&redis.Options{Addr: mr.Addr()}, "led-test", chain.WithLockDuration(0))
	require.NoError(t, err)
	defer client.Close()

	for i := 0; i < 2; i++ {
		_, _, err = client.CreateNewCanvas(ctx, painter)
		require.NoError(t, err)
		if i == 0 {
			_, err = client.LockCanvas(ctx, 1, painter, "first")
			require.NoError(t, err)
		}
	}
	_, err = client.CommitPixels(ctx, 2, painter, []palette.ColorIndex{0xf00}, []int{0})
	require.NoError(t, err)

	d, err := newDaemon(ctx, testConfig(t, mr.Addr()), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), d.rec.TokenID(), "canvas_id 0 follows the newest canvas")

	panel := d.panel.(*matrix.FramebufferPanel)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- d.Run(runCtx) }()

	red := color.NRGBA{R: 0xff, A: 0xff}
	require.Eventually(t, func() bool {
		return panel.Frame().NRGBAAt(3, 3) == red
	}, 5*time.Second, 20*time.Millisecond, "initial load paints cell 0 as a 4x4 block")

	_, err = client.CommitPixels(ctx, 2, painter, []palette.ColorIndex{0x0f0}, []int{17})
	require.NoError(t, err)

	green := color.NRGBA{G: 0xff, A: 0xff}
	require.Eventually(t, func() bool {
		return panel.Frame().NRGBAAt(5, 5) == green
	}, 5*time.Second, 20*time.Millisecond, "patch paints cell 17")

	require.Eventually(t, func() bool {
		return d.rec.Phase() == reconciler.PhaseIdle
	}, time.Second, 10*time.Millisecond)

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
