//go:build integration

package chain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dyluth/splatter/pkg/palette"
	"github.com/redis/go-redis/v9"
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

	redisURL := fmt.Sprintf("redis://%s:%s", host, port.Port())

	cleanup := func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}

	return redisURL, cleanup
}

// TestLedger_FullLifecycle mints, paints, locks and re-mints against real Redis.
func TestLedger_FullLifecycle(t *testing.T) {
	redisURL, cleanup := setupRedis(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	client, err := NewClient(opts, "it", WithLockDuration(time.Second))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if _, _, err := client.CreateNewCanvas(ctx, alice); err != nil {
		t.Fatalf("CreateNewCanvas failed: %v", err)
	}

	sub, err := client.SubscribeCanvasEvents(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if _, err := client.CommitPixels(ctx, 1, alice, []palette.ColorIndex{100, 40}, []int{34, 34}); err != nil {
		t.Fatalf("CommitPixels failed: %v", err)
	}

	select {
	case e := <-sub.Events():
		if e.Type != EventCanvasUpdated || len(e.Positions) != 2 {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for CanvasUpdated")
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := client.LockCanvas(ctx, 1, alice, "Integration"); err != nil {
		t.Fatalf("LockCanvas failed: %v", err)
	}

	id, _, err := client.CreateNewCanvas(ctx, bob)
	if err != nil {
		t.Fatalf("second CreateNewCanvas failed: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected token id 2, got %d", id)
	}

	pixels, err := client.GetPixels(ctx, 1)
	if err != nil {
		t.Fatalf("GetPixels failed: %v", err)
	}
	if pixels[34] != 40 {
		t.Fatalf("expected last pair to win at 34, got %d", pixels[34])
	}
}
