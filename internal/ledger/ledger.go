// Package ledger runs a disposable Redis ledger in Docker for local
// development, one container per splatter network.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/go-connections/nat"
)

// DefaultImage is the Redis image started by Up.
const DefaultImage = "redis:7-alpine"

const redisPort nat.Port = "6379/tcp"

// ErrAlreadyRunning is returned by Up when the network already has a ledger.
var ErrAlreadyRunning = errors.New("ledger already running")

// ErrNotRunning is returned by Down when the network has no ledger.
var ErrNotRunning = errors.New("no ledger running")

// Options configures Up.
type Options struct {
	Network string
	Image   string // default DefaultImage
	Port    int    // host port, default 6379
}

// Info describes a ledger container.
type Info struct {
	ContainerID string `json:"container_id"`
	Name        string `json:"name"`
	Network     string `json:"network"`
	Port        int    `json:"port"`
	State       string `json:"state"`
	RunID       string `json:"run_id"`
}

// RedisURL returns the host address of the ledger.
func (i *Info) RedisURL() string {
	return RedisURL(i.Port)
}

// Find returns the ledger container of network, or nil if there is none.
func Find(ctx context.Context, api DockerAPI, network string) (*Info, error) {
	args := filters.NewArgs()
	args.Add("label", fmt.Sprintf("%s=%s", LabelNetwork, network))
	args.Add("label", fmt.Sprintf("%s=ledger", LabelComponent))

	containers, err := api.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return nil, nil
	}
	return infoFrom(containers[0]), nil
}

func infoFrom(c types.Container) *Info {
	info := &Info{
		ContainerID: c.ID,
		Network:     c.Labels[LabelNetwork],
		State:       c.State,
		RunID:       c.Labels[LabelRunID],
	}
	if len(c.Names) > 0 {
		info.Name = trimSlash(c.Names[0])
	}
	info.Port, _ = strconv.Atoi(c.Labels[LabelRedisPort])
	return info
}

func trimSlash(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}

// Up pulls the image and starts a Redis container for opts.Network, bound to
// 127.0.0.1:opts.Port.
func Up(ctx context.Context, api DockerAPI, opts Options) (*Info, error) {
	if opts.Image == "" {
		opts.Image = DefaultImage
	}
	if opts.Port == 0 {
		opts.Port = 6379
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", opts.Port)
	}

	existing, err := Find(ctx, api, opts.Network)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, fmt.Errorf("network '%s': %w", opts.Network, ErrAlreadyRunning)
	}

	reader, err := api.ImagePull(ctx, opts.Image, types.ImagePullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull %s: %w", opts.Image, err)
	}
	// The pull only completes once its progress stream is drained
	io.Copy(io.Discard, reader)
	reader.Close()

	runID := GenerateRunID()
	name := ContainerName(opts.Network)
	resp, err := api.ContainerCreate(ctx, &container.Config{
		Image:  opts.Image,
		Labels: BuildLabels(opts.Network, runID, opts.Port),
		ExposedPorts: nat.PortSet{
			redisPort: struct{}{},
		},
	}, &container.HostConfig{
		PortBindings: nat.PortMap{
			redisPort: []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: strconv.Itoa(opts.Port),
				},
			},
		},
	}, nil, nil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger container: %w", err)
	}

	if err := api.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Leave nothing half-created behind
		api.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("failed to start ledger container: %w", err)
	}

	return &Info{
		ContainerID: resp.ID,
		Name:        name,
		Network:     opts.Network,
		Port:        opts.Port,
		State:       "running",
		RunID:       runID,
	}, nil
}

// Down stops and removes the ledger container of network. All canvases it
// held are lost.
func Down(ctx context.Context, api DockerAPI, network string) (*Info, error) {
	info, err := Find(ctx, api, network)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("network '%s': %w", network, ErrNotRunning)
	}

	// 10s graceful timeout
	timeout := 10
	if err := api.ContainerStop(ctx, info.ContainerID, container.StopOptions{Timeout: &timeout}); err != nil {
		// Might already be stopped; removal is forced anyway
		log.Printf("[Ledger] Failed to stop %s: %v", info.Name, err)
	}
	if err := api.ContainerRemove(ctx, info.ContainerID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", info.Name, err)
	}
	return info, nil
}

// Pinger checks that a ledger answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitReady polls p every 200ms until it answers or timeout passes.
func WaitReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)
	for {
		err := p.Ping(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeoutCh:
			return fmt.Errorf("timeout waiting for ledger after %v: %w", timeout, err)
		case <-ticker.C:
		}
	}
}
