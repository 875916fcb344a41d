// Package reconciler keeps a live canvas.State in step with the ledger.
//
// A Reconciler follows one canvas. Each CanvasUpdated notification for that
// canvas is merged into the committed grid as a confirmed patch; a payload the
// state rejects as malformed triggers a full refetch instead. CanvasLocked
// marks the state locked. Notifications for other canvases are ignored.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/splatter/internal/metrics"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
)

// Ledger is the part of the chain client the reconciler needs.
type Ledger interface {
	Snapshot(ctx context.Context, tokenID uint64) (*chain.Snapshot, error)
	SubscribeCanvasEvents(ctx context.Context) (*chain.Subscription, error)
}

// Listener is notified after every merge. Calls are made while the
// reconciler holds its lock, so listeners must not call back into it.
type Listener interface {
	// CanvasPatched reports the positions written by a confirmed patch, in
	// payload order (duplicates included).
	CanvasPatched(positions []int)
	// CanvasReloaded reports that the whole state was replaced by a snapshot.
	CanvasReloaded()
	// CanvasLocked reports that the canvas was locked under title.
	CanvasLocked(title string)
}

// Phase is the reconciler's position in its Idle -> Applying -> Idle cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseApplying
)

func (p Phase) String() string {
	if p == PhaseApplying {
		return "applying"
	}
	return "idle"
}

// Outcome describes what Handle did with a notification.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomePatched
	OutcomeReloaded
	OutcomeLocked
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePatched:
		return "patched"
	case OutcomeReloaded:
		return "reloaded"
	case OutcomeLocked:
		return "locked"
	case OutcomeStopped:
		return "stopped"
	default:
		return "ignored"
	}
}

// Reconciler merges ledger notifications for one canvas into a State.
type Reconciler struct {
	ledger  Ledger
	tokenID uint64
	state   *canvas.State

	mu        sync.Mutex
	phase     Phase
	stopped   bool
	running   bool
	listeners []Listener
	cancel    context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a reconciler that writes into state, which the caller owns.
func New(ledger Ledger, tokenID uint64, state *canvas.State) *Reconciler {
	return &Reconciler{
		ledger:  ledger,
		tokenID: tokenID,
		state:   state,
	}
}

// TokenID returns the canvas this reconciler follows.
func (r *Reconciler) TokenID() uint64 {
	return r.tokenID
}

// State returns the live state handle.
func (r *Reconciler) State() *canvas.State {
	return r.state
}

// Phase returns the current phase.
func (r *Reconciler) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// AddListener registers l for merge notifications.
func (r *Reconciler) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Load hydrates the state from a fresh snapshot and notifies listeners.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return nil
	}
	return r.reloadLocked(ctx, "load")
}

// Handle merges one notification. It is safe to call concurrently with Run;
// all merges are serialized.
func (r *Reconciler) Handle(ctx context.Context, e *chain.Event) (Outcome, error) {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	outcome, err := r.handleLocked(ctx, e)
	metrics.ReconcilerEvents.WithLabelValues(string(e.Type), outcome.String()).Inc()
	if outcome != OutcomeIgnored && outcome != OutcomeStopped {
		metrics.ReconcilerApplyDuration.Observe(time.Since(start).Seconds())
	}
	return outcome, err
}

func (r *Reconciler) handleLocked(ctx context.Context, e *chain.Event) (Outcome, error) {
	if r.stopped {
		return OutcomeStopped, nil
	}
	if e.TokenID != r.tokenID {
		return OutcomeIgnored, nil
	}

	switch e.Type {
	case chain.EventCanvasUpdated:
		r.phase = PhaseApplying
		defer func() { r.phase = PhaseIdle }()

		colors, err := e.Colors()
		if err == nil {
			err = r.state.ApplyConfirmedPatch(colors, e.Positions)
		}
		if err == nil {
			r.logEvent("patch_applied", map[string]interface{}{
				"cells": len(e.Positions),
				"block": e.BlockNumber,
			})
			for _, l := range r.listeners {
				l.CanvasPatched(append([]int(nil), e.Positions...))
			}
			return OutcomePatched, nil
		}
		if !errors.Is(err, canvas.ErrMalformedPatch) {
			return OutcomeIgnored, err
		}

		r.logEvent("patch_malformed", map[string]interface{}{
			"error": err.Error(),
			"block": e.BlockNumber,
		})
		if err := r.reloadLocked(ctx, "malformed_patch"); err != nil {
			return OutcomeIgnored, err
		}
		return OutcomeReloaded, nil

	case chain.EventCanvasLocked:
		r.state.MarkLocked(e.Title)
		r.logEvent("canvas_locked", map[string]interface{}{
			"title": e.Title,
			"block": e.BlockNumber,
		})
		for _, l := range r.listeners {
			l.CanvasLocked(e.Title)
		}
		return OutcomeLocked, nil

	default:
		return OutcomeIgnored, nil
	}
}

// reloadLocked refetches the snapshot and hydrates the state. Caller holds r.mu.
func (r *Reconciler) reloadLocked(ctx context.Context, reason string) error {
	snap, err := r.ledger.Snapshot(ctx, r.tokenID)
	if err != nil {
		return fmt.Errorf("failed to refetch canvas %d: %w", r.tokenID, err)
	}
	if err := r.state.Hydrate(snap.Data.Meta(), snap.Pixels); err != nil {
		return fmt.Errorf("failed to hydrate canvas %d: %w", r.tokenID, err)
	}

	metrics.ReconcilerReloads.WithLabelValues(reason).Inc()
	r.logEvent("canvas_reloaded", map[string]interface{}{
		"reason":    reason,
		"is_locked": snap.Data.IsLocked,
	})
	for _, l := range r.listeners {
		l.CanvasReloaded()
	}
	return nil
}

// Run subscribes to ledger notifications, hydrates the state and merges
// notifications until ctx is cancelled or Stop is called.
func (r *Reconciler) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler for canvas %d is already running", r.tokenID)
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.running = true
	r.mu.Unlock()

	defer close(done)
	defer cancel()

	log.Printf("[Reconciler] Starting for canvas %d", r.tokenID)

	// Subscribe before the initial load so no update between the two is lost.
	sub, err := r.ledger.SubscribeCanvasEvents(runCtx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to canvas events: %w", err)
	}
	defer sub.Close()

	if err := r.Load(runCtx); err != nil {
		return fmt.Errorf("failed to load canvas: %w", err)
	}

	for {
		select {
		case <-runCtx.Done():
			log.Printf("[Reconciler] Shutting down...")
			return nil

		case event, ok := <-sub.Events():
			if !ok {
				log.Printf("[Reconciler] Subscription closed")
				return nil
			}
			if _, err := r.Handle(runCtx, event); err != nil {
				log.Printf("[Reconciler] Error handling %s for canvas %d: %v", event.Type, event.TokenID, err)
			}

		case err, ok := <-sub.Errors():
			if !ok {
				log.Printf("[Reconciler] Error channel closed")
				return nil
			}
			log.Printf("[Reconciler] Subscription error: %v", err)
		}
	}
}

// Stop tears the reconciler down. Safe to call multiple times. Once Stop
// returns, the reconciler makes no further change to the state and a running
// Run has returned. Must not be called from a Listener.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		cancel, done := r.cancel, r.done
		r.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
		log.Printf("[Reconciler] Stopped for canvas %d", r.tokenID)
	})
}

// logEvent emits a structured JSON log line.
func (r *Reconciler) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "reconciler"
	data["event_type"] = eventType
	data["canvas"] = r.tokenID

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Reconciler] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
