package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ant-design/antd-tools/internal/logfields"
)

// Manager owns one scratch directory.
type Manager struct {
	baseDir string
	prefix  string
	dir     string
}

// NewManager returns a manager creating its directory under baseDir
// (os.TempDir when empty).
func NewManager(baseDir, prefix string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = "work"
	}
	return &Manager{baseDir: baseDir, prefix: prefix}
}

// Create makes a uniquely named, timestamped directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("create workspace base %s: %w", m.baseDir, err)
	}
	pattern := fmt.Sprintf("antd-tools-%s-%s-*", m.prefix, time.Now().Format("20060102-150405"))
	dir, err := os.MkdirTemp(m.baseDir, pattern)
	if err != nil {
		return fmt.Errorf("create %s workspace: %w", m.prefix, err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path joins elem onto the workspace directory.
func (m *Manager) Path(elem ...string) string {
	return filepath.Join(append([]string{m.dir}, elem...)...)
}

// Subdir creates and returns a directory inside the workspace.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("%s workspace not created", m.prefix)
	}
	sub := m.Path(name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", fmt.Errorf("create workspace dir %s: %w", name, err)
	}
	return sub, nil
}

// Cleanup removes the workspace directory. It is a no-op before Create.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("remove %s workspace: %w", m.prefix, err)
	}
	slog.Debug("Removed workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
