package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	perrors "skyreport/internal/errors"
)

// ErrNotFound is returned by Read when a slot has never been written.
// Slots must be seeded with an explicit update.
var ErrNotFound = errors.New("baseline not found")

// Store persists one Baseline per slot.
type Store interface {
	Read(slot Slot) (Baseline, error)
	Write(slot Slot, commit string, report Report) error
}

// FileStore implements Store with one JSON file per slot.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, perrors.IO("create baseline directory", fmt.Errorf("%s: %w", dir, err))
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing slot.
func (s *FileStore) Path(slot Slot) string {
	return filepath.Join(s.dir, string(slot)+".json")
}

func (s *FileStore) Read(slot Slot) (Baseline, error) {
	if !slot.Valid() {
		return Baseline{}, fmt.Errorf("unknown baseline slot %q", slot)
	}

	data, err := os.ReadFile(s.Path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return Baseline{}, fmt.Errorf("%s: %w", slot, ErrNotFound)
		}
		return Baseline{}, perrors.IO("read baseline "+string(slot), err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return Baseline{}, perrors.Parse("decode baseline "+string(slot), err)
	}
	if b.Report, err = NewReport(b.Report.Get, b.Report.Set, b.Report.Update); err != nil {
		return Baseline{}, perrors.Parse("validate baseline "+string(slot), err)
	}
	return b, nil
}

// Write replaces the slot's baseline. The new value is written to a temporary
// file in the same directory and renamed over the old one, so a reader sees
// either the previous baseline or the new one.
func (s *FileStore) Write(slot Slot, commit string, report Report) (err error) {
	if !slot.Valid() {
		return fmt.Errorf("unknown baseline slot %q", slot)
	}

	data, err := json.MarshalIndent(Baseline{Commit: commit, Report: report}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+string(slot)+"-*.json.tmp")
	if err != nil {
		return perrors.IO("create temp baseline", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return perrors.IO("write baseline "+string(slot), err)
	}
	if err = tmp.Sync(); err != nil {
		return perrors.IO("sync baseline "+string(slot), err)
	}
	if err = tmp.Close(); err != nil {
		return perrors.IO("close baseline "+string(slot), err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return perrors.IO("chmod baseline "+string(slot), err)
	}
	if err = os.Rename(tmp.Name(), s.Path(slot)); err != nil {
		return perrors.IO("replace baseline "+string(slot), err)
	}
	return nil
}
