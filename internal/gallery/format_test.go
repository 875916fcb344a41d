package gallery

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/splatter/pkg/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTable(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		var buf bytes.Buffer
		n := FormatTable(&buf, nil, "local")
		assert.Equal(t, 0, n)
		assert.Contains(t, buf.String(), "No canvases found on network 'local'")
	})

	t.Run("single canvas", func(t *testing.T) {
		var buf bytes.Buffer
		n := FormatTable(&buf, []*chain.CanvasData{
			{TokenID: 7, CreatedAt: time.Now().Add(-90 * time.Second).Unix(), Title: "Sunset", IsLocked: true},
		}, "local")

		assert.Equal(t, 1, n)
		output := buf.String()
		assert.Contains(t, output, "Canvases on network 'local'")
		assert.Contains(t, output, "7 ")
		assert.Contains(t, output, "locked")
		assert.Contains(t, output, "1m ago")
		assert.Contains(t, output, "Sunset")
		assert.Contains(t, output, "1 canvas found")
	})
}

func TestFormatJSONL(t *testing.T) {
	var buf bytes.Buffer
	canvases := []*chain.CanvasData{
		{TokenID: 1, CreatedAt: 100, Title: "A", IsLocked: true},
		{TokenID: 2, CreatedAt: 200},
	}
	require.NoError(t, FormatJSONL(&buf, canvases))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		var d chain.CanvasData
		require.NoError(t, json.Unmarshal([]byte(line), &d))
		assert.Equal(t, *canvases[i], d)
	}
}

func TestFormatSingleJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatSingleJSON(&buf, &chain.CanvasData{TokenID: 4, CreatedAt: 1}))
	assert.Contains(t, buf.String(), "\n  \"token_id\": 4")
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
}

func TestFormatTitle(t *testing.T) {
	tests := []struct {
		name     string
		data     chain.CanvasData
		expected string
	}{
		{"open canvas", chain.CanvasData{TokenID: 1}, "-"},
		{"locked with title", chain.CanvasData{TokenID: 1, Title: "Sunset", IsLocked: true}, "Sunset"},
		{"locked without title", chain.CanvasData{TokenID: 2, IsLocked: true}, "Canvas #2"},
		{"long title", chain.CanvasData{TokenID: 1, Title: strings.Repeat("x", 50), IsLocked: true}, strings.Repeat("x", 37) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatTitle(&tt.data))
		})
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		at       int64
		expected string
	}{
		{"unset", 0, "-"},
		{"seconds", now.Add(-5 * time.Second).Unix(), "s ago"},
		{"minutes", now.Add(-5 * time.Minute).Unix(), "5m ago"},
		{"hours", now.Add(-3 * time.Hour).Unix(), "3h ago"},
		{"days", now.Add(-49 * time.Hour).Unix(), "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, formatAge(tt.at), tt.expected)
		})
	}
}
