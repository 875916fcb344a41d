// Package health serves the LED daemon's /healthz and /metrics endpoints.
package health

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger checks ledger connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CanvasInfo reports which canvas the daemon is displaying. Optional.
type CanvasInfo func() (tokenID uint64, phase string)

// Server provides HTTP health check and metrics endpoints.
type Server struct {
	client Pinger
	addr   string
	canvas CanvasInfo
	server *http.Server
}

// NewServer creates a health server listening on addr once started.
func NewServer(client Pinger, addr string, canvas CanvasInfo) *Server {
	return &Server{
		client: client,
		addr:   addr,
		canvas: canvas,
	}
}

// Handler returns the mux with /healthz and /metrics.
func (h *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.healthCheckHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start starts the HTTP server in the background.
func (h *Server) Start() error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Health] Server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (h *Server) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

// healthCheckHandler handles GET /healthz requests.
// Returns 200 OK if Redis is accessible, 503 Service Unavailable otherwise.
func (h *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := Response{
		Status: "healthy",
	}
	if h.canvas != nil {
		response.Canvas, response.Phase = h.canvas()
	}

	status := http.StatusOK
	if err := h.client.Ping(ctx); err != nil {
		response.Status = "unhealthy"
		response.Redis = "disconnected"
		response.Error = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		response.Redis = "connected"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// Response is the JSON body of /healthz.
type Response struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
	Canvas uint64 `json:"canvas,omitempty"`
	Phase  string `json:"phase,omitempty"`
	Error  string `json:"error,omitempty"`
}
