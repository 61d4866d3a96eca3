package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLFile is a Store kept as a flat YAML mapping in a single file. Every
// write rewrites the whole file through a temp file and rename.
type YAMLFile struct {
	mu     sync.Mutex
	path   string
	data   map[string]string
	closed bool
}

// DefaultYAMLPath returns storage.yaml next to the executable.
func DefaultYAMLPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "storage.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "storage.yaml")
}

// OpenYAMLFile loads path, or starts empty if it does not exist yet.
func OpenYAMLFile(path string) (*YAMLFile, error) {
	f := &YAMLFile{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path) //nolint:gosec // path from user config
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("kv: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("kv: parse %s: %w", path, err)
	}
	if f.data == nil {
		// empty file
		f.data = make(map[string]string)
	}
	return f, nil
}

// Get returns the value under key.
func (f *YAMLFile) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.data[key]
	return v, ok, nil
}

// Set stores value under key and rewrites the file.
func (f *YAMLFile) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.data[key]
	f.data[key] = value
	if err := f.flushLocked(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and rewrites the file.
func (f *YAMLFile) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.flushLocked(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

// Close marks the store closed. The file is already up to date.
func (f *YAMLFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *YAMLFile) flushLocked() error {
	raw, err := yaml.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("kv: encode yaml: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".storage-*.yaml")
	if err != nil {
		return fmt.Errorf("kv: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("kv: write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("kv: chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kv: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("kv: replace %s: %w", f.path, err)
	}
	return nil
}
