// Package liveview serves a browser view of one canvas and pushes every
// change to connected viewers over a websocket. A Hub is a reconciler
// listener: confirmed patches, reloads and locks are forwarded as messages.
package liveview

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/dyluth/splatter/internal/metrics"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/palette"
	"github.com/gorilla/websocket"
)

// Message types pushed to viewers.
const (
	MessageSnapshot = "snapshot"
	MessagePatch    = "patch"
	MessageLocked   = "locked"
)

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

// Cell is one changed cell in a patch message.
type Cell struct {
	Position int                `json:"position"`
	Color    palette.ColorIndex `json:"color"`
}

// Message is one websocket frame. Snapshot carries the full effective grid,
// patch the changed cells, locked the title.
type Message struct {
	Type   string               `json:"type"`
	Canvas uint64               `json:"canvas"`
	Grid   []palette.ColorIndex `json:"grid,omitempty"`
	Cells  []Cell               `json:"cells,omitempty"`
	Locked bool                 `json:"locked"`
	Title  string               `json:"title,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub fans canvas changes out to websocket viewers.
type Hub struct {
	tokenID uint64
	state   *canvas.State

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub for the canvas held in state.
func NewHub(tokenID uint64, state *canvas.State) *Hub {
	return &Hub{
		tokenID: tokenID,
		state:   state,
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Snapshot builds a snapshot message of the current effective grid.
func (h *Hub) Snapshot() Message {
	meta := h.state.Meta()
	return Message{
		Type:   MessageSnapshot,
		Canvas: h.tokenID,
		Grid:   h.state.EffectiveGrid(),
		Locked: meta.IsLocked,
		Title:  meta.Title,
	}
}

// CanvasPatched pushes the effective colors at positions. Duplicates are
// sent once.
func (h *Hub) CanvasPatched(positions []int) {
	grid := h.state.EffectiveGrid()
	seen := make(map[int]bool, len(positions))
	cells := make([]Cell, 0, len(positions))
	for _, pos := range positions {
		if seen[pos] || pos < 0 || pos >= len(grid) {
			continue
		}
		seen[pos] = true
		cells = append(cells, Cell{Position: pos, Color: grid[pos]})
	}
	h.broadcast(Message{
		Type:   MessagePatch,
		Canvas: h.tokenID,
		Cells:  cells,
		Locked: h.state.Meta().IsLocked,
	})
}

// CanvasReloaded pushes a full snapshot.
func (h *Hub) CanvasReloaded() {
	h.broadcast(h.Snapshot())
}

// CanvasLocked pushes the lock notification.
func (h *Hub) CanvasLocked(title string) {
	h.broadcast(Message{
		Type:   MessageLocked,
		Canvas: h.tokenID,
		Locked: true,
		Title:  title,
	})
	h.logEvent("canvas_locked", map[string]interface{}{"title": title})
}

// broadcast queues m for every viewer. A viewer whose queue is full is
// dropped.
func (h *Hub) broadcast(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- m:
		default:
			log.Printf("[LiveView] Dropping slow viewer %s", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

// register adds a viewer and queues the initial snapshot.
func (h *Hub) register(conn *websocket.Conn) (*client, bool) {
	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	c.send <- h.Snapshot()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	h.clients[c] = struct{}{}
	metrics.LiveViewClients.Inc()
	h.logEvent("viewer_connected", map[string]interface{}{"remote": conn.RemoteAddr().String(), "viewers": len(h.clients)})
	return c, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.LiveViewClients.Dec()
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// writePump sends queued messages until the queue is closed or a write fails.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for m := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(m); err != nil {
			log.Printf("[LiveView] Write to %s failed: %v", c.conn.RemoteAddr(), err)
			h.unregister(c)
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// readPump discards incoming frames and unregisters the viewer on close.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// logEvent emits a structured JSON log line.
func (h *Hub) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "liveview"
	data["event_type"] = eventType
	data["canvas"] = h.tokenID

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[LiveView] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
