package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

const ManifestVersion = 1

// ErrBuildLocked is returned when another ingestion run holds the manifest lock.
var ErrBuildLocked = errors.New("index build is locked by another process")

// Manifest records the outcome of the last completed ingestion run.
type Manifest struct {
	Version         int       `json:"version"`
	Dir             string    `json:"dir"`
	Backend         string    `json:"backend"`
	Collection      string    `json:"collection"`
	Sources         int       `json:"sources"`
	Documents       int       `json:"documents"`
	Chunks          int       `json:"chunks"`
	ChunkerVersion  string    `json:"chunker_version,omitempty"`
	EmbedderVersion string    `json:"embedder_version,omitempty"`
	Forced          bool      `json:"forced"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsEmpty reports whether no run has been recorded.
func (m Manifest) IsEmpty() bool {
	return m.UpdatedAt.IsZero() && m.Chunks == 0
}

// ManifestStore persists the manifest with atomic writes and guards builds with a file lock.
type ManifestStore struct {
	filePath string
	lockFile *os.File
}

func NewManifestStore(filePath string) *ManifestStore {
	return &ManifestStore{filePath: filePath}
}

// Lock acquires an exclusive non-blocking lock next to the manifest file.
func (s *ManifestStore) Lock() error {
	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrBuildLocked
		}
		return fmt.Errorf("acquire lock: %w", err)
	}
	s.lockFile = f
	return nil
}

// Unlock releases the lock and removes the lock file.
func (s *ManifestStore) Unlock() error {
	if s.lockFile == nil {
		return nil
	}
	if err := syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if err := s.lockFile.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	s.lockFile = nil
	_ = os.Remove(s.lockPath())
	return nil
}

// Load reads the manifest. A missing or empty file yields an empty manifest.
func (s *ManifestStore) Load() (Manifest, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{Version: ManifestVersion}, nil
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	if len(data) == 0 {
		return Manifest{Version: ManifestVersion}, nil
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Version == 0 {
		m.Version = ManifestVersion
	}
	return m, nil
}

// Save writes the manifest through a temp file and rename.
func (s *ManifestStore) Save(m Manifest) error {
	m.Version = ManifestVersion
	m.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

// Reset removes the manifest file.
func (s *ManifestStore) Reset() error {
	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove manifest: %w", err)
	}
	return nil
}

func (s *ManifestStore) FilePath() string {
	return s.filePath
}

func (s *ManifestStore) lockPath() string {
	return s.filePath + ".lock"
}
