package chain

import "fmt"

// Redis key pattern helpers
//
// Every key and channel is namespaced by network so a local development
// ledger and relays for several chains can share one Redis server.
//
// Key pattern: splatter:{network}:{entity}[:{id}[:{field}]]

// CanvasKey returns the hash holding one canvas.
// Pattern: splatter:{network}:canvas:{id}
func CanvasKey(network string, tokenID uint64) string {
	return fmt.Sprintf("splatter:%s:canvas:%d", network, tokenID)
}

// ContributorsKey returns the hash of address -> committed pixel count.
// Pattern: splatter:{network}:canvas:{id}:contributors
func ContributorsKey(network string, tokenID uint64) string {
	return fmt.Sprintf("splatter:%s:canvas:%d:contributors", network, tokenID)
}

// ContributorOrderKey returns the list of contributors in first-commit order.
// Pattern: splatter:{network}:canvas:{id}:contributor_order
func ContributorOrderKey(network string, tokenID uint64) string {
	return fmt.Sprintf("splatter:%s:canvas:%d:contributor_order", network, tokenID)
}

// TotalSupplyKey returns the counter of minted canvases.
// Pattern: splatter:{network}:total_supply
func TotalSupplyKey(network string) string {
	return fmt.Sprintf("splatter:%s:total_supply", network)
}

// BlockKey returns the block height counter, incremented once per confirmed write.
// Pattern: splatter:{network}:block
func BlockKey(network string) string {
	return fmt.Sprintf("splatter:%s:block", network)
}

// CanvasEventsChannel returns the Pub/Sub channel carrying CanvasUpdated and
// CanvasLocked notifications.
// Pattern: splatter:{network}:canvas_events
func CanvasEventsChannel(network string) string {
	return fmt.Sprintf("splatter:%s:canvas_events", network)
}
