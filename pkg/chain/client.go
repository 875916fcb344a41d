package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/palette"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic transaction retries when a watched key changes.
const maxTxRetries = 10

// Client provides network-scoped operations on the canvas ledger.
// All keys and channels are automatically namespaced with the network name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	network      string
	lockDuration time.Duration
	now          func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLockDuration sets how long a canvas must stay open before it can be locked.
func WithLockDuration(d time.Duration) Option {
	return func(c *Client) { c.lockDuration = d }
}

// WithClock replaces the wall clock used for created_at and lock checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new ledger client for the specified network.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - network: ledger namespace, e.g. "local" or "sepolia" (must not be empty)
//
// Returns an error if network is empty.
func NewClient(redisOpts *redis.Options, network string, opts ...Option) (*Client, error) {
	if network == "" {
		return nil, fmt.Errorf("network name cannot be empty")
	}

	c := &Client{
		rdb:          redis.NewClient(redisOpts),
		network:      network,
		lockDuration: canvas.DefaultLockDuration,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.lockDuration < 0 {
		return nil, fmt.Errorf("lock duration cannot be negative")
	}
	return c, nil
}

// Network returns the namespace this client operates on.
func (c *Client) Network() string {
	return c.network
}

// LockDuration returns the minimum open time before a canvas can be locked.
func (c *Client) LockDuration() time.Duration {
	return c.lockDuration
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// TotalSupply returns the number of canvases minted so far. Token ids run
// from 1 to TotalSupply.
func (c *Client) TotalSupply(ctx context.Context) (uint64, error) {
	n, err := c.rdb.Get(ctx, TotalSupplyKey(c.network)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read total supply: %w", err)
	}
	return n, nil
}

// CanvasData returns the metadata of one canvas.
// Returns ErrCanvasNotFound if the canvas was never minted.
func (c *Client) CanvasData(ctx context.Context, tokenID uint64) (*CanvasData, error) {
	snap, err := c.Snapshot(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &snap.Data, nil
}

// GetPixels returns the committed grid of one canvas in position order.
func (c *Client) GetPixels(ctx context.Context, tokenID uint64) ([]palette.ColorIndex, error) {
	snap, err := c.Snapshot(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return snap.Pixels, nil
}

// Snapshot reads metadata and pixels of one canvas in a single round trip.
func (c *Client) Snapshot(ctx context.Context, tokenID uint64) (*Snapshot, error) {
	hashData, err := c.rdb.HGetAll(ctx, CanvasKey(c.network, tokenID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read canvas from Redis: %w", err)
	}
	return snapshotFromHash(tokenID, hashData)
}

// ListCanvases returns the metadata of every minted canvas, oldest first.
func (c *Client) ListCanvases(ctx context.Context) ([]*CanvasData, error) {
	supply, err := c.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	if supply == 0 {
		return []*CanvasData{}, nil
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, supply)
	for id := uint64(1); id <= supply; id++ {
		cmds[id-1] = pipe.HGetAll(ctx, CanvasKey(c.network, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read canvases from Redis: %w", err)
	}

	out := make([]*CanvasData, 0, supply)
	for i, cmd := range cmds {
		snap, err := snapshotFromHash(uint64(i+1), cmd.Val())
		if err != nil {
			return nil, err
		}
		out = append(out, &snap.Data)
	}
	return out, nil
}

// GetContributors returns every address that committed pixels to the canvas,
// in first-commit order, with its total committed pixel count.
func (c *Client) GetContributors(ctx context.Context, tokenID uint64) (*Contributors, error) {
	exists, err := c.rdb.Exists(ctx, CanvasKey(c.network, tokenID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check canvas existence: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("canvas %d: %w", tokenID, ErrCanvasNotFound)
	}

	pipe := c.rdb.Pipeline()
	orderCmd := pipe.LRange(ctx, ContributorOrderKey(c.network, tokenID), 0, -1)
	countsCmd := pipe.HGetAll(ctx, ContributorsKey(c.network, tokenID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read contributors from Redis: %w", err)
	}

	addresses := orderCmd.Val()
	counts := countsCmd.Val()
	result := &Contributors{
		Addresses:   make([]string, 0, len(addresses)),
		PixelCounts: make([]uint64, 0, len(addresses)),
	}
	for _, addr := range addresses {
		n, err := strconv.ParseUint(counts[addr], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid pixel count for %s: %w", addr, err)
		}
		result.Addresses = append(result.Addresses, addr)
		result.PixelCounts = append(result.PixelCounts, n)
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid contributors: %w", err)
	}
	return result, nil
}

// CreateNewCanvas mints the next canvas. Only allowed when no canvas exists
// yet or the newest canvas is locked.
func (c *Client) CreateNewCanvas(ctx context.Context, from string) (uint64, *Receipt, error) {
	if !IsValidAddress(from) {
		return 0, nil, fmt.Errorf("%w: bad sender address %q", ErrInvalidTransaction, from)
	}

	supplyKey := TotalSupplyKey(c.network)
	var tokenID uint64
	var block *redis.IntCmd

	txf := func(tx *redis.Tx) error {
		supply, err := tx.Get(ctx, supplyKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read total supply: %w", err)
		}

		if supply > 0 {
			latest, err := tx.HGet(ctx, CanvasKey(c.network, supply), "is_locked").Result()
			if err != nil {
				return fmt.Errorf("failed to read canvas %d: %w", supply, err)
			}
			if locked, _ := strconv.ParseBool(latest); !locked {
				return fmt.Errorf("canvas %d: %w", supply, ErrCanvasOpen)
			}
		}

		tokenID = supply + 1
		hash, err := CanvasToHash(&CanvasData{
			TokenID:   tokenID,
			CreatedAt: c.now().Unix(),
		}, make([]palette.ColorIndex, canvas.Size))
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, supplyKey, tokenID, 0)
			pipe.HSet(ctx, CanvasKey(c.network, tokenID), hash)
			block = pipe.Incr(ctx, BlockKey(c.network))
			return nil
		})
		return err
	}

	if err := c.runTx(ctx, txf, supplyKey); err != nil {
		return 0, nil, err
	}

	return tokenID, c.receipt(from, block), nil
}

// CommitPixels writes colors at positions in pair order; a later pair for the
// same position wins. Emits CanvasUpdated on success. A non-nil receipt means
// the write is committed, even when the error is ErrPublishFailed.
func (c *Client) CommitPixels(ctx context.Context, tokenID uint64, from string, colors []palette.ColorIndex, positions []int) (*Receipt, error) {
	if err := validateCommit(from, colors, positions); err != nil {
		return nil, err
	}

	canvasKey := CanvasKey(c.network, tokenID)
	contributorsKey := ContributorsKey(c.network, tokenID)
	var block *redis.IntCmd

	txf := func(tx *redis.Tx) error {
		hashData, err := tx.HGetAll(ctx, canvasKey).Result()
		if err != nil {
			return fmt.Errorf("failed to read canvas from Redis: %w", err)
		}
		snap, err := snapshotFromHash(tokenID, hashData)
		if err != nil {
			return err
		}
		if snap.Data.IsLocked {
			return fmt.Errorf("canvas %d: %w", tokenID, ErrCanvasLocked)
		}

		known, err := tx.HExists(ctx, contributorsKey, from).Result()
		if err != nil {
			return fmt.Errorf("failed to read contributors: %w", err)
		}

		for i, pos := range positions {
			snap.Pixels[pos] = colors[i]
		}
		encoded, err := EncodePixels(snap.Pixels)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, canvasKey, "pixels", encoded)
			pipe.HIncrBy(ctx, contributorsKey, from, int64(len(positions)))
			if !known {
				pipe.RPush(ctx, ContributorOrderKey(c.network, tokenID), from)
			}
			block = pipe.Incr(ctx, BlockKey(c.network))
			return nil
		})
		return err
	}

	if err := c.runTx(ctx, txf, canvasKey, contributorsKey); err != nil {
		return nil, err
	}

	receipt := c.receipt(from, block)
	colorIDs := make([]int, len(colors))
	for i, col := range colors {
		colorIDs[i] = int(col)
	}
	event := &Event{
		Type:        EventCanvasUpdated,
		TokenID:     tokenID,
		ColorIDs:    colorIDs,
		Positions:   append([]int(nil), positions...),
		BlockNumber: receipt.BlockNumber,
		TxHash:      receipt.TxHash,
	}
	if err := c.PublishEvent(ctx, event); err != nil {
		return receipt, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return receipt, nil
}

// LockCanvas freezes the canvas under title. Fails with ErrLockTooEarly while
// the lock window has not elapsed. Emits CanvasLocked on success. A non-nil
// receipt means the canvas is locked, even when the error is ErrPublishFailed.
func (c *Client) LockCanvas(ctx context.Context, tokenID uint64, from, title string) (*Receipt, error) {
	if !IsValidAddress(from) {
		return nil, fmt.Errorf("%w: bad sender address %q", ErrInvalidTransaction, from)
	}
	if len(title) > MaxTitleLength {
		return nil, fmt.Errorf("%w: title longer than %d bytes", ErrInvalidTransaction, MaxTitleLength)
	}

	canvasKey := CanvasKey(c.network, tokenID)
	var block *redis.IntCmd

	txf := func(tx *redis.Tx) error {
		hashData, err := tx.HGetAll(ctx, canvasKey).Result()
		if err != nil {
			return fmt.Errorf("failed to read canvas from Redis: %w", err)
		}
		snap, err := snapshotFromHash(tokenID, hashData)
		if err != nil {
			return err
		}
		if snap.Data.IsLocked {
			return fmt.Errorf("canvas %d: %w", tokenID, ErrCanvasLocked)
		}
		if !canvas.Lockable(time.Unix(snap.Data.CreatedAt, 0), c.now(), c.lockDuration) {
			return fmt.Errorf("canvas %d: %w", tokenID, ErrLockTooEarly)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, canvasKey, "is_locked", true, "title", title)
			block = pipe.Incr(ctx, BlockKey(c.network))
			return nil
		})
		return err
	}

	if err := c.runTx(ctx, txf, canvasKey); err != nil {
		return nil, err
	}

	receipt := c.receipt(from, block)
	event := &Event{
		Type:        EventCanvasLocked,
		TokenID:     tokenID,
		Title:       title,
		BlockNumber: receipt.BlockNumber,
		TxHash:      receipt.TxHash,
	}
	if err := c.PublishEvent(ctx, event); err != nil {
		return receipt, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return receipt, nil
}

// PublishEvent sends a notification on the network's events channel.
// Writes through this client publish automatically; relays that mirror a
// remote ledger call this directly.
func (c *Client) PublishEvent(ctx context.Context, e *Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	eventJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.rdb.Publish(ctx, CanvasEventsChannel(c.network), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish canvas event: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to canvas events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of canvas events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and envelope validation failures.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeCanvasEvents subscribes to CanvasUpdated and CanvasLocked events
// for every canvas on this network. The subscription is confirmed before
// return, so no event published afterwards is missed.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: a subscriber that falls too far behind loses events.
func (c *Client) SubscribeCanvasEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, CanvasEventsChannel(c.network))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to canvas events: %w", err)
	}

	eventsChan := make(chan *Event, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				err := json.Unmarshal([]byte(msg.Payload), &event)
				if err == nil {
					err = event.Validate()
				}
				if err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to decode canvas event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error means the canvas does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCanvasNotFound) || errors.Is(err, redis.Nil)
}

// runTx runs txf under WATCH on keys, retrying when a watched key changed.
func (c *Client) runTx(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := c.rdb.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction aborted after %d retries: %w", maxTxRetries, redis.TxFailedErr)
}

func (c *Client) receipt(from string, block *redis.IntCmd) *Receipt {
	return &Receipt{
		TxHash:      newTxHash(),
		BlockNumber: uint64(block.Val()),
		From:        from,
	}
}

// newTxHash returns a random 32-byte hex identifier.
func newTxHash() string {
	a, b := uuid.New(), uuid.New()
	return "0x" + strings.ReplaceAll(a.String()+b.String(), "-", "")
}

func snapshotFromHash(tokenID uint64, hashData map[string]string) (*Snapshot, error) {
	if len(hashData) == 0 {
		return nil, fmt.Errorf("canvas %d: %w", tokenID, ErrCanvasNotFound)
	}
	data, pixels, err := HashToCanvas(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize canvas %d: %w", tokenID, err)
	}
	snap := &Snapshot{Data: *data, Pixels: pixels}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("canvas %d: %w", tokenID, err)
	}
	return snap, nil
}

func validateCommit(from string, colors []palette.ColorIndex, positions []int) error {
	if !IsValidAddress(from) {
		return fmt.Errorf("%w: bad sender address %q", ErrInvalidTransaction, from)
	}
	if len(positions) == 0 {
		return fmt.Errorf("%w: no pixels", ErrInvalidTransaction)
	}
	if len(colors) != len(positions) {
		return fmt.Errorf("%w: %d colors for %d positions", ErrInvalidTransaction, len(colors), len(positions))
	}
	for i, pos := range positions {
		if pos < 0 || pos >= canvas.Size {
			return fmt.Errorf("%w: position %d out of range at index %d", ErrInvalidTransaction, pos, i)
		}
		if err := colors[i].Validate(); err != nil {
			return fmt.Errorf("%w: color at index %d: %v", ErrInvalidTransaction, i, err)
		}
	}
	return nil
}
