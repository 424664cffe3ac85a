package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// File stores each key as one JSON document under a base directory. Writes
// go to a temp file that is synced and renamed into place.
type File struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFile creates the base directory if needed.
func NewFile(baseDir string) (*File, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, unavailable("open", baseDir, err)
	}
	return &File{baseDir: baseDir}, nil
}

func (f *File) path(key string) (string, error) {
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.baseDir, key+".json"), nil
}

func (f *File) Get(_ context.Context, key string, dst any) (bool, error) {
	p, err := f.path(key)
	if err != nil {
		return false, err
	}
	f.mu.RLock()
	data, err := os.ReadFile(p)
	f.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("get", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (f *File) Set(_ context.Context, key string, value any) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.baseDir, "."+key+"_*.json.tmp")
	if err != nil {
		return unavailable("set", key, fmt.Errorf("create temp file: %w", err))
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return unavailable("set", key, fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return unavailable("set", key, fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return unavailable("set", key, fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return unavailable("set", key, fmt.Errorf("atomic rename: %w", err))
	}
	return nil
}
