package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/splatter/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Run("fresh initialization uses defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "splatter.yml")
		require.NoError(t, Initialize(path, Options{}, false))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Network)
		assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
		assert.Empty(t, cfg.Account)
		assert.Equal(t, 64, cfg.Matrix.Cols)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# account:")
	})

	t.Run("options are written", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf", "gallery.yml")
		opts := Options{
			Network:  "gallery",
			RedisURL: "redis://cache:6380/1",
			Account:  "0x1111111111111111111111111111111111111111",
		}

		require.NoError(t, Initialize(path, opts, false))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "gallery", cfg.Network)
		assert.Equal(t, "redis://cache:6380/1", cfg.RedisURL)
		assert.NoError(t, cfg.RequireAccount())
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		existing := filepath.Join(t.TempDir(), "splatter.yml")
		require.NoError(t, os.WriteFile(existing, []byte("old content"), 0644))

		err := Initialize(existing, Options{}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project already initialized")
		assert.Contains(t, err.Error(), "--force")

		data, err := os.ReadFile(existing)
		require.NoError(t, err)
		assert.Equal(t, "old content", string(data))
	})

	t.Run("force replaces existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "splatter.yml")
		require.NoError(t, os.WriteFile(path, []byte("old content"), 0644))

		require.NoError(t, Initialize(path, Options{Network: "fresh"}, true))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "fresh", cfg.Network)
	})

	t.Run("invalid options are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "splatter.yml")
		err := Initialize(path, Options{Network: "Bad Name"}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not valid")
		assert.NoFileExists(t, path)
	})
}

func TestCheckExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splatter.yml")
	assert.NoError(t, CheckExisting(path))

	require.NoError(t, os.WriteFile(path, []byte("version: '1.0'"), 0644))
	err := CheckExisting(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "splatter.yml")
}
