package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c, err := NewAt(t.TempDir(), time.Hour)
	require.NoError(t, err)

	_, ok := c.Get("https://example.org/v3/index.json")
	assert.False(t, ok)

	require.NoError(t, c.Set("https://example.org/v3/index.json", []byte(`{"version":"3.0.0"}`)))
	data, ok := c.Get("https://example.org/v3/index.json")
	require.True(t, ok)
	assert.JSONEq(t, `{"version":"3.0.0"}`, string(data))
}

func TestCacheExpiry(t *testing.T) {
	c, err := NewAt(t.TempDir(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Set("key", []byte("value")))

	old := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(c.Path("key"), old, old))

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestCacheJSON(t *testing.T) {
	c, err := NewAt(t.TempDir(), time.Hour)
	require.NoError(t, err)

	type doc struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.SetJSON("doc", doc{Name: "chocolatey"}))

	var got doc
	require.True(t, c.GetJSON("doc", &got))
	assert.Equal(t, "chocolatey", got.Name)

	require.NoError(t, c.Set("broken", []byte("{")))
	assert.False(t, c.GetJSON("broken", &got))
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	c, err := NewAt(dir, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set("a", []byte("1")))
	require.NoError(t, c.Set("b", []byte("2")))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "keep"), 0755))

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewAtDefaultTTL(t *testing.T) {
	c, err := NewAt(t.TempDir(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, c.TTL)
}

func TestDefaultDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir("rocolatey")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "rocolatey"), dir)
}
