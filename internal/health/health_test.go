package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/splatter/internal/metrics"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_MethodNotAllowed(t *testing.T) {
	server := NewServer(nil, ":0", nil)

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy when Redis reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := chain.NewClient(&redis.Options{Addr: mr.Addr()}, "test")
		require.NoError(t, err)
		defer client.Close()

		server := NewServer(client, ":0", func() (uint64, string) { return 3, "idle" })

		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "connected", response.Redis)
		assert.Equal(t, uint64(3), response.Canvas)
		assert.Equal(t, "idle", response.Phase)
		assert.Empty(t, response.Error)
	})

	t.Run("unhealthy when Redis unavailable", func(t *testing.T) {
		// Port 9 is the discard protocol - connections fail immediately
		client, err := chain.NewClient(&redis.Options{
			Addr:         "localhost:9",
			DialTimeout:  50 * time.Millisecond,
			ReadTimeout:  50 * time.Millisecond,
			WriteTimeout: 50 * time.Millisecond,
		}, "test")
		require.NoError(t, err)
		defer client.Close()

		server := NewServer(client, ":0", nil)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(ctx)

		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "unhealthy", response.Status)
		assert.Equal(t, "disconnected", response.Redis)
		assert.NotEmpty(t, response.Error)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.PanelSyncs.WithLabelValues("full").Inc()

	server := NewServer(nil, ":0", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "splatter_matrix_syncs_total")
}

func TestShutdownWithoutStart(t *testing.T) {
	server := NewServer(nil, ":0", nil)
	assert.NoError(t, server.Shutdown(context.Background()))
}
