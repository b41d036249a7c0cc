// Package home manages the renamekit application home directory: the
// settings document, the profiles folder, and the history database.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// Manager handles the application home directory.
type Manager struct {
	path string
}

// Subdirectories within home.
const (
	ProfilesDir = "profiles"
	LogsDir     = "logs"
)

// Files within home.
const (
	ConfigFile  = "config.yaml"
	HistoryFile = "history.db"
)

// NewManager creates a new home directory manager.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		path = DefaultHomePath()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid home path: %w", err)
	}

	return &Manager{path: absPath}, nil
}

// DefaultHomePath returns the default home directory path.
func DefaultHomePath() string {
	if path := os.Getenv("RENAMEKIT_HOME"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".renamekit"
	}
	return filepath.Join(home, ".renamekit")
}

// Path returns the home directory path.
func (m *Manager) Path() string {
	return m.path
}

// Initialize creates the home directory structure and a default config
// when none exists.
func (m *Manager) Initialize() error {
	dirs := []string{
		"", // home directory itself
		ProfilesDir,
		LogsDir,
	}

	for _, dir := range dirs {
		path := m.JoinPath(dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}

	if err := m.initializeConfig(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	return nil
}

// Exists checks if the home directory exists.
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.path)
	return err == nil && info.IsDir()
}

// JoinPath joins path elements relative to the home directory.
func (m *Manager) JoinPath(elem ...string) string {
	parts := append([]string{m.path}, elem...)
	return filepath.Join(parts...)
}

// ConfigPath returns the path to config.yaml.
func (m *Manager) ConfigPath() string {
	return m.JoinPath(ConfigFile)
}

// HistoryPath returns the path to the history database.
func (m *Manager) HistoryPath() string {
	return m.JoinPath(HistoryFile)
}

// ProfilesPath returns the path to the profiles directory.
func (m *Manager) ProfilesPath() string {
	return m.JoinPath(ProfilesDir)
}

// LogsPath returns the path to the logs directory.
func (m *Manager) LogsPath() string {
	return m.JoinPath(LogsDir)
}

// initializeConfig creates a default config.yaml if it doesn't exist.
func (m *Manager) initializeConfig() error {
	configPath := m.ConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return nil // config exists, don't overwrite
	}

	defaultConfig := `# renamekit configuration

# UI defaults (consumed by front-ends, opaque to the engine)
ui:
  theme: light           # light or dark
  language: en
  showTooltips: true
  confirmBeforeRename: true

# Default naming values preloaded into new sessions
defaults:
  prefix: ""
  suffix: ""
  baseName: ""
  startNumber: 1
  extensionLock: true

# File operations
operations:
  backupBeforeRename: false
  backupDirName: backup  # timestamped folder created next to the sources
  failFast: false

# Logging settings
logging:
  level: info            # trace, debug, info, warn, error
  logOperations: true    # log per-batch apply/undo summaries

# Server settings
server:
  port: 3000
  host: localhost
`

	return os.WriteFile(configPath, []byte(defaultConfig), 0o644)
}
