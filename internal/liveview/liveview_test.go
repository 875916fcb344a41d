package liveview

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/splatter/internal/editor"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/dyluth/splatter/pkg/palette"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const painter = "0x1111111111111111111111111111111111111111"

func hydratedState(t *testing.T, locked bool) *canvas.State {
	t.Helper()
	grid := make([]palette.ColorIndex, canvas.Size)
	grid[0] = 0xf00
	state := canvas.NewState()
	require.NoError(t, state.Hydrate(canvas.Meta{CreatedAt: time.Now(), IsLocked: locked}, grid))
	return state
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestHub_PushesChanges(t *testing.T) {
	state := hydratedState(t, false)
	hub := NewHub(3, state)
	srv := httptest.NewServer(NewServer(hub, nil, ":0").Handler())
	defer srv.Close()

	conn := dial(t, srv)

	t.Run("initial snapshot", func(t *testing.T) {
		m := readMessage(t, conn)
		assert.Equal(t, MessageSnapshot, m.Type)
		assert.Equal(t, uint64(3), m.Canvas)
		require.Len(t, m.Grid, canvas.Size)
		assert.Equal(t, palette.ColorIndex(0xf00), m.Grid[0])
		assert.False(t, m.Locked)
	})

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	t.Run("patch", func(t *testing.T) {
		require.NoError(t, state.ApplyConfirmedPatch([]palette.ColorIndex{7, 9, 0x0f0}, []int{5, 5, 6}))
		hub.CanvasPatched([]int{5, 5, 6})

		m := readMessage(t, conn)
		assert.Equal(t, MessagePatch, m.Type)
		assert.Equal(t, []Cell{{Position: 5, Color: 9}, {Position: 6, Color: 0x0f0}}, m.Cells)
	})

	t.Run("reload", func(t *testing.T) {
		hub.CanvasReloaded()
		m := readMessage(t, conn)
		assert.Equal(t, MessageSnapshot, m.Type)
		assert.Equal(t, palette.ColorIndex(9), m.Grid[5])
	})

	t.Run("lock", func(t *testing.T) {
		hub.CanvasLocked("Sunset")
		m := readMessage(t, conn)
		assert.Equal(t, MessageLocked, m.Type)
		assert.True(t, m.Locked)
		assert.Equal(t, "Sunset", m.Title)
	})

	t.Run("viewer leaves", func(t *testing.T) {
		conn.Close()
		require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(1, hydratedState(t, false))
	srv := httptest.NewServer(NewServer(hub, nil, ":0").Handler())
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Broadcasting with no viewers is a no-op
	hub.CanvasReloaded()
}

func TestServer_PageAndSVG(t *testing.T) {
	hub := NewHub(4, hydratedState(t, false))
	handler := NewServer(hub, nil, ":0").Handler()

	t.Run("page", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Canvas #4")
		assert.Contains(t, w.Body.String(), "/ws")
		assert.NotContains(t, w.Body.String(), "/pointer", "read-only view")
	})

	t.Run("unknown path", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("svg", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/canvas.svg", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), `fill="#f00"`)
	})

	t.Run("pointer disabled without editor", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pointer", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_Painting(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client, err := chain.NewClient(&redis.Options{Addr: mr.Addr()}, "test-net", chain.WithLockDuration(0))
	require.NoError(t, err)
	defer client.Close()

	id, _, err := client.CreateNewCanvas(ctx, painter)
	require.NoError(t, err)

	state := canvas.NewState()
	ed := editor.New(client, state, id, painter, 0)
	require.NoError(t, ed.Load(ctx))
	require.NoError(t, ed.Select(0x0af))

	hub := NewHub(id, state)
	handler := NewServer(hub, ed, ":0").Handler()

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		return w
	}

	t.Run("commit with nothing pending", func(t *testing.T) {
		w := post("/commit", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("paint", func(t *testing.T) {
		w := post("/pointer", `{"rel_x":0.14,"rel_y":0.07}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "painted", result["action"])
		assert.Equal(t, float64(2), result["x"])
		assert.Equal(t, float64(1), result["y"])

		c, err := state.EffectiveColorAt(2, 1)
		require.NoError(t, err)
		assert.Equal(t, palette.ColorIndex(0x0af), c)
	})

	t.Run("pick", func(t *testing.T) {
		w := post("/pointer", `{"rel_x":0.99,"rel_y":0.99,"pick":true}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, palette.Unpainted, ed.Selected())
		require.NoError(t, ed.Select(0x0af))
	})

	t.Run("pointer outside canvas", func(t *testing.T) {
		w := post("/pointer", `{"rel_x":1.5,"rel_y":0.5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		w := post("/pointer", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("commit", func(t *testing.T) {
		w := post("/commit", "")
		require.Equal(t, http.StatusOK, w.Code)

		var receipt chain.Receipt
		require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&receipt))
		assert.Equal(t, painter, receipt.From)
		assert.Empty(t, state.Edits())

		pixels, err := client.GetPixels(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, palette.ColorIndex(0x0af), pixels[1*canvas.Width+2])
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/commit", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
