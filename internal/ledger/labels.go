package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys set on every local ledger container
const (
	LabelProject   = "splatter.project"
	LabelNetwork   = "splatter.network"
	LabelRunID     = "splatter.run_id"
	LabelComponent = "splatter.component"
	LabelRedisPort = "splatter.redis.port"
)

// BuildLabels creates the label set for a ledger container serving network.
func BuildLabels(network, runID string, port int) map[string]string {
	return map[string]string{
		LabelProject:   "true",
		LabelNetwork:   network,
		LabelRunID:     runID,
		LabelComponent: "ledger",
		LabelRedisPort: fmt.Sprintf("%d", port),
	}
}

// GenerateRunID creates a new UUID for one `splatter ledger up`.
func GenerateRunID() string {
	return uuid.New().String()
}

// ContainerName returns the Redis container name for a network.
func ContainerName(network string) string {
	return fmt.Sprintf("splatter-ledger-%s", network)
}

// RedisURL is the address clients on the host use to reach the ledger.
func RedisURL(port int) string {
	return fmt.Sprintf("redis://127.0.0.1:%d/0", port)
}
