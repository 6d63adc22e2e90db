package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T, quota int) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "files"), quota)
	require.NoError(t, err)
	db, err := NewSQLiteStore(filepath.Join(dir, "kv.db"), quota)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(quota),
		"file":   fs,
		"sqlite": db,
	}
}

func TestStoreContract(t *testing.T) {
	for name, s := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(KeyConfig)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(KeyConfig, `{"scene":{}}`))
			v, err := s.Get(KeyConfig)
			require.NoError(t, err)
			assert.Equal(t, `{"scene":{}}`, v)

			require.NoError(t, s.Set(KeyConfig, "second"))
			v, err = s.Get(KeyConfig)
			require.NoError(t, err)
			assert.Equal(t, "second", v)

			require.NoError(t, s.Remove(KeyConfig))
			require.NoError(t, s.Remove(KeyConfig), "removing a missing key is fine")
			_, err = s.Get(KeyConfig)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestQuota(t *testing.T) {
	for name, s := range backends(t, 64) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("a", strings.Repeat("x", 40)))

			err := s.Set("b", strings.Repeat("y", 40))
			assert.ErrorIs(t, err, ErrQuotaExceeded)
			_, err = s.Get("b")
			assert.ErrorIs(t, err, ErrNotFound, "rejected write leaves nothing behind")

			// Overwriting a key only counts the new value.
			require.NoError(t, s.Set("a", strings.Repeat("z", 60)))
			require.NoError(t, s.Remove("a"))
			require.NoError(t, s.Set("b", strings.Repeat("y", 40)))
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"", "file", "sqlite", "memory"} {
		s, err := Open(backend, dir)
		require.NoError(t, err, backend)
		require.NoError(t, s.Set(KeyAudioFilename, "clip.webm"))
		if c, ok := s.(interface{ Close() error }); ok {
			c.Close()
		}
	}

	_, err := Open("redis", dir)
	assert.Error(t, err)
}
