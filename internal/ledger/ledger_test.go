package ledger

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDocker keeps containers in memory and matches list filters on labels.
type fakeDocker struct {
	containers map[string]types.Container
	pulled     []string
	created    *container.HostConfig
	startErr   error
	stopped    []string
	removed    []string
}

func newFakeDocker() *fakeDocker {
	return &fakeDocker{containers: map[string]types.Container{}}
}

func (f *fakeDocker) ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error) {
	var out []types.Container
	for _, c := range f.containers {
		match := true
		for _, kv := range options.Filters.Get("label") {
			k, v, _ := strings.Cut(kv, "=")
			if c.Labels[k] != v {
				match = false
			}
		}
		if match {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDocker) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	id := "id-" + containerName
	f.created = hostConfig
	f.containers[id] = types.Container{
		ID:     id,
		Names:  []string{"/" + containerName},
		Image:  config.Image,
		Labels: config.Labels,
		State:  "created",
	}
	return container.CreateResponse{ID: id}, nil
}

func (f *fakeDocker) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	if f.startErr != nil {
		return f.startErr
	}
	c := f.containers[containerID]
	c.State = "running"
	f.containers[containerID] = c
	return nil
}

func (f *fakeDocker) ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error {
	f.stopped = append(f.stopped, containerID)
	return nil
}

func (f *fakeDocker) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	f.removed = append(f.removed, containerID)
	delete(f.containers, containerID)
	return nil
}

func (f *fakeDocker) ImagePull(ctx context.Context, refStr string, options types.ImagePullOptions) (io.ReadCloser, error) {
	f.pulled = append(f.pulled, refStr)
	return io.NopCloser(strings.NewReader(`{"status":"Downloaded"}`)), nil
}

func TestUp(t *testing.T) {
	ctx := context.Background()

	t.Run("starts redis with a loopback port binding", func(t *testing.T) {
		api := newFakeDocker()
		info, err := Up(ctx, api, Options{Network: "local"})
		require.NoError(t, err)

		assert.Equal(t, "splatter-ledger-local", info.Name)
		assert.Equal(t, 6379, info.Port)
		assert.Equal(t, "redis://127.0.0.1:6379/0", info.RedisURL())
		assert.Equal(t, []string{DefaultImage}, api.pulled)

		bindings := api.created.PortBindings[nat.Port("6379/tcp")]
		require.Len(t, bindings, 1)
		assert.Equal(t, "127.0.0.1", bindings[0].HostIP)
		assert.Equal(t, "6379", bindings[0].HostPort)

		found, err := Find(ctx, api, "local")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "running", found.State)
		assert.Equal(t, "splatter-ledger-local", found.Name)
		assert.Equal(t, info.RunID, found.RunID)
	})

	t.Run("refuses a second ledger for the same network", func(t *testing.T) {
		api := newFakeDocker()
		_, err := Up(ctx, api, Options{Network: "local", Port: 6400})
		require.NoError(t, err)

		existing, err := Up(ctx, api, Options{Network: "local"})
		assert.ErrorIs(t, err, ErrAlreadyRunning)
		require.NotNil(t, existing)
		assert.Equal(t, 6400, existing.Port)

		_, err = Up(ctx, api, Options{Network: "other", Port: 6401})
		assert.NoError(t, err)
	})

	t.Run("removes the container when start fails", func(t *testing.T) {
		api := newFakeDocker()
		api.startErr = errors.New("port is already allocated")

		_, err := Up(ctx, api, Options{Network: "local"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port is already allocated")
		assert.Empty(t, api.containers)
	})

	t.Run("rejects bad port", func(t *testing.T) {
		_, err := Up(ctx, newFakeDocker(), Options{Network: "local", Port: 70000})
		assert.Error(t, err)
	})
}

func TestDown(t *testing.T) {
	ctx := context.Background()
	api := newFakeDocker()

	_, err := Down(ctx, api, "local")
	assert.ErrorIs(t, err, ErrNotRunning)

	up, err := Up(ctx, api, Options{Network: "local"})
	require.NoError(t, err)

	info, err := Down(ctx, api, "local")
	require.NoError(t, err)
	assert.Equal(t, up.ContainerID, info.ContainerID)
	assert.Equal(t, []string{up.ContainerID}, api.stopped)
	assert.Equal(t, []string{up.ContainerID}, api.removed)

	found, err := Find(ctx, api, "local")
	require.NoError(t, err)
	assert.Nil(t, found)
}

type flakyPinger struct{ failures int }

func (p *flakyPinger) Ping(ctx context.Context) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitReady(t *testing.T) {
	ctx := context.Background()

	t.Run("returns once the ledger answers", func(t *testing.T) {
		require.NoError(t, WaitReady(ctx, &flakyPinger{failures: 2}, 2*time.Second))
	})

	t.Run("times out", func(t *testing.T) {
		err := WaitReady(ctx, &flakyPinger{failures: 1000}, 300*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout waiting for ledger")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestLabels(t *testing.T) {
	labels := BuildLabels("gallery", "run-1", 6380)
	assert.Equal(t, "gallery", labels[LabelNetwork])
	assert.Equal(t, "6380", labels[LabelRedisPort])
	assert.Equal(t, "ledger", labels[LabelComponent])
	assert.Len(t, GenerateRunID(), 36)
}
