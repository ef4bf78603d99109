package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// DefaultQuotaBytes mirrors the usual per-origin localStorage ceiling.
const DefaultQuotaBytes = 5 << 20

// File persists the whole scope as one JSON object on disk. Writes that would
// grow the file beyond the quota fail with ErrUnavailable and leave the
// previous content untouched.
type File struct {
	path  string
	quota int

	mu sync.Mutex
}

func NewFile(path string, quotaBytes int) *File {
	if quotaBytes <= 0 {
		quotaBytes = DefaultQuotaBytes
	}
	return &File{path: expandHome(path), quota: quotaBytes}
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

// read returns an empty map when the file does not exist yet. A file that is
// not a JSON object is treated as empty so a later write can repair it.
func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(ErrUnavailable, "read %s: %v", f.path, err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return map[string]string{}, nil
	}
	return values, nil
}

func (f *File) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}
	if len(data) > f.quota {
		return errors.Wrapf(ErrUnavailable, "quota exceeded: %d > %d bytes", len(data), f.quota)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrapf(ErrUnavailable, "mkdir: %v", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrapf(ErrUnavailable, "write %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(ErrUnavailable, "rename %s: %v", tmp, err)
	}
	return nil
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
