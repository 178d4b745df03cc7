// Package devicestore persists the last selected playback device.
package devicestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tessro/cuecard/internal/core"
)

// FileName is the name of the device file inside the state directory.
const FileName = "device.json"

// Store is a single-slot record of the last selected device. The loaded
// value is only a hint; callers validate it against a fresh listing.
type Store struct {
	path string
}

// New creates a store under dir.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the path to the device file.
func (s *Store) Path() string {
	return s.path
}

// Save overwrites the stored device.
func (s *Store) Save(d core.SavedDevice) error {
	if d.ID == "" {
		return errors.New("cannot save device without id")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write device file: %w", err)
	}
	return nil
}

// Load returns the stored device, or nil when none is stored or the file
// cannot be read or parsed.
func (s *Store) Load() *core.SavedDevice {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var d core.SavedDevice
	if err := json.Unmarshal(data, &d); err != nil || d.ID == "" {
		return nil
	}
	return &d
}

// Clear removes the stored device. A missing file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete device file: %w", err)
	}
	return nil
}
