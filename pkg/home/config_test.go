package home

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	return m
}

func TestLoadConfigFromGeneratedDefault(t *testing.T) {
	m := newTestManager(t)

	config, err := m.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "light", config.UI.Theme)
	assert.True(t, config.UI.ConfirmBeforeRename)
	assert.Equal(t, 1, config.Defaults.StartNumber)
	assert.True(t, config.Defaults.ExtensionLock)
	assert.False(t, config.Operations.BackupBeforeRename)
	assert.Equal(t, "backup", config.Operations.BackupDirName)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, 3000, config.Server.Port)
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	m := newTestManager(t)

	config := DefaultConfig()
	config.UI.Theme = "dark"
	config.Defaults.Prefix = "IMG_"
	config.Operations.BackupBeforeRename = true
	config.Logging.Level = "debug"
	require.NoError(t, m.SaveConfig(config))

	loaded, err := m.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dark", loaded.UI.Theme)
	assert.Equal(t, "IMG_", loaded.Defaults.Prefix)
	assert.True(t, loaded.Operations.BackupBeforeRename)
	assert.Equal(t, "debug", loaded.Logging.Level)
}

func TestLoadConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	m := newTestManager(t)

	partial := []byte("ui:\n  theme: dark\n")
	require.NoError(t, os.WriteFile(m.ConfigPath(), partial, 0o644))

	config, err := m.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dark", config.UI.Theme)
	assert.Equal(t, 1, config.Defaults.StartNumber)
	assert.Equal(t, "backup", config.Operations.BackupDirName)
}

func TestLoadConfigMissingFile(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(m.ConfigPath(), []byte("ui: [broken"), 0o644))

	_, err := m.LoadConfig()
	assert.Error(t, err)
}
