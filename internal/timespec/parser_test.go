package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 29, 14, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    time.Time
		wantErr string
	}{
		{"duration", "1h30m", now.Add(-90 * time.Minute), ""},
		{"rfc3339", "2025-10-29T13:00:00Z", time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC), ""},
		{"empty", "", time.Time{}, "empty time specification"},
		{"negative", "-1h", time.Time{}, "negative duration"},
		{"garbage", "yesterday", time.Time{}, "invalid time specification"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.spec, now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseRange(t *testing.T) {
	t.Run("open ends", func(t *testing.T) {
		since, until, err := ParseRange("", "", now)
		require.NoError(t, err)
		assert.True(t, since.IsZero())
		assert.True(t, until.IsZero())
	})

	t.Run("both bounds", func(t *testing.T) {
		since, until, err := ParseRange("2h", "1h", now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(-2*time.Hour), since)
		assert.Equal(t, now.Add(-time.Hour), until)
	})

	t.Run("since after until", func(t *testing.T) {
		_, _, err := ParseRange("1h", "2h", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--since must be before --until")
	})

	t.Run("bad since", func(t *testing.T) {
		_, _, err := ParseRange("soon", "", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --since")
	})

	t.Run("bad until", func(t *testing.T) {
		_, _, err := ParseRange("", "later", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --until")
	})
}
