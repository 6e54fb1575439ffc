package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
)

const prefix = "docmerge-"

// Manager allocates ephemeral merged trees below a base directory.
type Manager struct {
	baseDir string
	tempDir string
}

// NewManager creates a workspace manager rooted at baseDir (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create allocates a fresh timestamped directory and makes it current.
// A previously created directory is left untouched.
func (m *Manager) Create() (string, error) {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return "", errors.FileSystemError("failed to create workspace base directory").
			WithCause(err).
			WithContext("path", m.baseDir).
			Build()
	}

	timestamp := time.Now().Format("20060102-150405")
	dir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("%s%s-*", prefix, timestamp))
	if err != nil {
		return "", errors.FileSystemError("failed to create workspace directory").
			WithCause(err).
			WithContext("path", m.baseDir).
			Build()
	}

	m.tempDir = dir
	slog.Info("Created workspace", logfields.Path(dir))
	return dir, nil
}

// GetPath returns the current workspace directory ("" before Create).
func (m *Manager) GetPath() string {
	return m.tempDir
}

// Discard removes the current workspace directory.
func (m *Manager) Discard() error {
	if m.tempDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.tempDir); err != nil {
		return errors.FileSystemError("failed to discard workspace").
			WithCause(err).
			WithContext("path", m.tempDir).
			Build()
	}

	slog.Info("Discarded workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}
