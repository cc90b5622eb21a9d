package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

const (
	itemExt  = ".item"
	lockName = ".letterbox.lock"
	tmpGlob  = ".letterbox-tmp-*"
)

// FS implements Store with one file per key under a root directory.
// Values are replaced by rename, so readers never see a partial write.
// Update holds an exclusive advisory lock on the directory across its read
// and write, which serializes read-modify-write cycles between processes
// sharing the directory. mu does the same for goroutines of one process,
// since they all share the lock handle.
type FS struct {
	root string // absolute path to the store directory
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFS creates a new FS store rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, lock: flock.New(filepath.Join(abs, lockName))}, nil
}

// Root returns the absolute store directory.
func (f *FS) Root() string {
	return f.root
}

// Path returns the file backing key. Keys that are empty, contain path
// separators or try to leave the root are rejected.
func (f *FS) Path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage: empty key")
	}
	cleaned := filepath.Clean(key)
	if cleaned != filepath.Base(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("storage: invalid key: %s", key)
	}
	abs := filepath.Join(f.root, cleaned+itemExt)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: key escapes store root: %s", key)
	}
	return abs, nil
}

// GetItem reads the value of key under a shared lock.
func (f *FS) GetItem(key string) (string, bool, error) {
	p, err := f.Path(key)
	if err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.RLock(); err != nil {
		return "", false, fmt.Errorf("storage: lock: %w", err)
	}
	defer f.lock.Unlock() //nolint:errcheck

	return f.read(key, p)
}

// SetItem atomically replaces the value of key under an exclusive lock.
func (f *FS) SetItem(key, value string) error {
	p, err := f.Path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("storage: lock: %w", err)
	}
	defer f.lock.Unlock() //nolint:errcheck

	return f.write(p, value)
}

// Update reads key, applies fn and writes the result without releasing the
// exclusive lock in between.
func (f *FS) Update(key string, fn func(string, bool) (string, error)) error {
	p, err := f.Path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("storage: lock: %w", err)
	}
	defer f.lock.Unlock() //nolint:errcheck

	old, ok, err := f.read(key, p)
	if err != nil {
		return err
	}
	v, err := fn(old, ok)
	if err != nil {
		return err
	}
	return f.write(p, v)
}

func (f *FS) read(key, p string) (string, bool, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return string(data), true, nil
}

// write goes tmp file → fsync → rename. The caller holds the lock.
func (f *FS) write(p, value string) error {
	tmp, err := os.CreateTemp(f.root, tmpGlob)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// RemoveItem deletes the file backing key.
func (f *FS) RemoveItem(key string) error {
	p, err := f.Path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("storage: lock: %w", err)
	}
	defer f.lock.Unlock() //nolint:errcheck

	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys.
func (f *FS) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, itemExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, itemExt))
	}
	return out, nil
}
