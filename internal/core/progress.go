package core

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ProgressStore persists a single in-flight session snapshot as JSON.
// Writing a new snapshot replaces the previous one.
type ProgressStore struct {
	path string
	now  func() time.Time
}

// NewProgressStore creates a store backed by the file at path.
func NewProgressStore(path string) *ProgressStore {
	return &ProgressStore{path: path, now: time.Now}
}

// Path returns the snapshot file location.
func (p *ProgressStore) Path() string {
	return p.path
}

// Snapshot builds the durable form of s stamped with the store's clock.
func (p *ProgressStore) Snapshot(s *Session) *ProgressSnapshot {
	labels := make([]Label, len(s.Labels))
	copy(labels, s.Labels)
	return &ProgressSnapshot{
		SessionID:    s.ID,
		Username:     s.Username,
		SelectedFile: s.SourceFile,
		CurrentIndex: s.Cursor,
		UserLabels:   labels,
		TotalRecords: s.Total(),
		Timestamp:    Timestamp{p.now()},
	}
}

// Save writes a snapshot of s. The file is replaced atomically so a crash
// mid-write leaves the previous snapshot intact.
func (p *ProgressStore) Save(s *Session) (*ProgressSnapshot, error) {
	const op = "save progress"

	snap := p.Snapshot(s)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, serializationError(op, err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return nil, ioError(op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".progress-*.tmp")
	if err != nil {
		return nil, ioError(op, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, ioError(op, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, ioError(op, err)
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return nil, ioError(op, err)
	}

	return snap, nil
}

// Load returns the saved snapshot, or nil if there is none. A snapshot that
// cannot be decoded yields a serialization error.
func (p *ProgressStore) Load() (*ProgressSnapshot, error) {
	const op = "load progress"

	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ioError(op, err)
	}

	var snap ProgressSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, serializationError(op, err)
	}
	if snap.SelectedFile == "" {
		return nil, serializationError(op, errors.New("snapshot has no selected_file"))
	}
	return &snap, nil
}

// Clear removes the saved snapshot. A missing snapshot is not an error.
func (p *ProgressStore) Clear() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError("clear progress", err)
	}
	return nil
}
