// Package storage is a small string key/value store with the semantics of
// browser local storage: values are strings and writes can fail when the
// quota is exhausted.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Well-known keys.
const (
	KeyConfig         = "studio3d_saved_config"
	KeyExtractedAudio = "extracted_audio"
	KeyAudioFilename  = "audio_filename"
)

// DefaultQuota matches the usual per-origin local storage limit.
const DefaultQuota = 5 << 20

var (
	ErrNotFound      = errors.New("storage: key not found")
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Open returns the store for the named backend. dir is ignored by the
// memory backend.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir, DefaultQuota)
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dir, "studio3d.db"), DefaultQuota)
	case "memory":
		return NewMemoryStore(DefaultQuota), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}

// usage is the quota accounting shared by the backends: keys and values
// both count, like the browser does.
func usage(key, value string) int {
	return len(key) + len(value)
}
