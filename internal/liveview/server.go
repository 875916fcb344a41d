package liveview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/dyluth/splatter/internal/editor"
	"github.com/dyluth/splatter/internal/render/grid"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: #222; color: #eee; font-family: sans-serif; text-align: center; }
#canvas { width: 512px; height: 512px; background: #000; image-rendering: pixelated; }
</style>
</head>
<body>
<h1 id="title">{{.Title}}</h1>
<img id="canvas" src="/canvas.svg" alt="{{.Title}}">
<p id="status">{{.Status}}</p>
<script>
const img = document.getElementById("canvas");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (ev) => {
  const m = JSON.parse(ev.data);
  img.src = "/canvas.svg?" + Date.now();
  if (m.locked) {
    document.getElementById("status").textContent = "locked";
    if (m.title) { document.getElementById("title").textContent = m.title; }
  }
};
{{if .Editable}}
img.addEventListener("click", (ev) => {
  const r = img.getBoundingClientRect();
  fetch("/pointer", {method: "POST", body: JSON.stringify({
    rel_x: (ev.clientX - r.left) / r.width,
    rel_y: (ev.clientY - r.top) / r.height,
    pick: ev.altKey,
  })});
});
{{end}}
</script>
</body>
</html>
`))

// Server is the live view HTTP server. With an editor attached, viewers can
// paint through POST /pointer and submit through POST /commit.
type Server struct {
	hub      *Hub
	renderer *grid.Renderer
	editor   *editor.Editor
	addr     string
	server   *http.Server
}

// NewServer creates a live view server for hub. ed may be nil for a
// read-only view.
func NewServer(hub *Hub, ed *editor.Editor, addr string) *Server {
	return &Server{
		hub:      hub,
		renderer: grid.New(hub.state),
		editor:   ed,
		addr:     addr,
	}
}

// Handler returns the mux serving the page, the SVG and the websocket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.pageHandler)
	mux.HandleFunc("/canvas.svg", s.svgHandler)
	mux.HandleFunc("/ws", s.wsHandler)
	if s.editor != nil {
		mux.HandleFunc("/pointer", s.pointerHandler)
		mux.HandleFunc("/commit", s.commitHandler)
	}
	return mux
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[LiveView] Server error: %v", err)
		}
	}()

	log.Printf("[LiveView] Serving canvas %d on %s", s.hub.tokenID, s.addr)
	return nil
}

// Shutdown disconnects viewers and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	meta := s.hub.state.Meta()
	status := "open"
	if meta.IsLocked {
		status = "locked"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, map[string]interface{}{
		"Title":    meta.DisplayTitle(s.hub.tokenID),
		"Status":   status,
		"Editable": s.editor != nil && !meta.IsLocked,
	})
	if err != nil {
		log.Printf("[LiveView] Failed to render page: %v", err)
	}
}

func (s *Server) svgHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.renderer.WriteSVG(w); err != nil {
		log.Printf("[LiveView] %v", err)
	}
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[LiveView] Failed to upgrade websocket: %v", err)
		return
	}

	c, ok := s.hub.register(conn)
	if !ok {
		conn.Close()
		return
	}
	go s.hub.writePump(c)
	s.hub.readPump(c)
}

func (s *Server) pointerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var p grid.Pointer
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid pointer: %w", err))
		return
	}

	result, err := s.renderer.HandlePointer(p, s.editor.Selected())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch result.Action {
	case grid.ActionPicked:
		if err := s.editor.Select(result.Color); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	case grid.ActionPainted:
		pos, _ := canvas.Position(result.X, result.Y)
		s.hub.CanvasPatched([]int{pos})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"action": result.Action.String(),
		"x":      result.X,
		"y":      result.Y,
		"color":  result.Color,
	})
}

func (s *Server) commitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	receipt, err := s.editor.Commit(r.Context())
	switch {
	case errors.Is(err, editor.ErrNothingToCommit):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, canvas.ErrLockedCanvas):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
		return
	}

	s.hub.CanvasReloaded()
	writeJSON(w, http.StatusOK, receipt)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
