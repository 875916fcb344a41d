// Package chain provides typed access to the Splatter canvas ledger.
//
// # Overview
//
// The ledger is the authoritative store of every canvas: its creation time,
// title, lock flag, committed pixels and contributors. It mirrors the surface
// of the canvas contract (canvasData, getPixels, commitPixels, lockCanvas,
// createNewCanvas, totalSupply, getContributors) and the change notifications
// it emits (CanvasUpdated, CanvasLocked).
//
// The ledger lives in Redis. Contract-side rules (no commits to locked
// canvases, no lock before the lock window elapsed, one open canvas at a time)
// are enforced inside optimistic WATCH/MULTI transactions, and every confirmed
// write is followed by an event on the network's Pub/Sub channel. A relay that
// follows a real chain can write the same keys and publish the same events.
//
// # Named results
//
// Contract calls return named-field types (CanvasData, Snapshot, Contributors,
// Receipt, Event) instead of positional tuples. Each has a Validate method and
// is validated before it is handed to the canvas state model.
//
// # Redis Schema
//
// All keys are namespaced by network: splatter:{network}:...
//
//	Canvas:             splatter:{network}:canvas:{id}                    (hash)
//	Contributor counts: splatter:{network}:canvas:{id}:contributors       (hash)
//	Contributor order:  splatter:{network}:canvas:{id}:contributor_order  (list)
//	Total supply:       splatter:{network}:total_supply                   (string)
//	Block height:       splatter:{network}:block                          (string)
//	Events channel:     splatter:{network}:canvas_events                  (pub/sub)
//
// # Usage Example
//
//	client, err := chain.NewClient(&redis.Options{Addr: "localhost:6379"}, "local")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	snap, err := client.Snapshot(ctx, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	state := canvas.NewState()
//	if err := state.Hydrate(snap.Data.Meta(), snap.Pixels); err != nil {
//		log.Fatal(err)
//	}
package chain
