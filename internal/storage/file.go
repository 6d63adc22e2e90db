package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one file per key under a directory. Key names are hex
// encoded so any string is a valid key.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	quota int
}

func NewFileStore(dir string, quota int) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir, quota: quota}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+".val")
}

func (s *FileStore) Get(key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: read %q: %w", key, err)
	}
	return string(data), nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		used, err := s.used()
		if err != nil {
			return err
		}
		if old, err := os.ReadFile(s.path(key)); err == nil {
			used -= usage(key, string(old))
		}
		if used+usage(key, value) > s.quota {
			return ErrQuotaExceeded
		}
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("storage: commit %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) used() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.val"))
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		name := filepath.Base(m)
		key, _ := hex.DecodeString(name[:len(name)-len(".val")])
		total += len(key) + int(info.Size())
	}
	return total, nil
}
