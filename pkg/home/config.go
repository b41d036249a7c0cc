package home

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the settings document stored at config.yaml. Unknown keys
// are ignored on load so older binaries tolerate newer files.
type Config struct {
	UI         UIConfig         `yaml:"ui"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
	Operations OperationsConfig `yaml:"operations"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
}

// UIConfig carries presentation settings. The engine persists them for
// front-ends and otherwise treats them as opaque.
type UIConfig struct {
	Theme               string `yaml:"theme"`
	Language            string `yaml:"language"`
	ShowTooltips        bool   `yaml:"showTooltips"`
	ConfirmBeforeRename bool   `yaml:"confirmBeforeRename"`
}

// DefaultsConfig contains naming values preloaded into new sessions.
type DefaultsConfig struct {
	Prefix        string `yaml:"prefix"`
	Suffix        string `yaml:"suffix"`
	BaseName      string `yaml:"baseName"`
	StartNumber   int    `yaml:"startNumber"`
	ExtensionLock bool   `yaml:"extensionLock"`
}

// OperationsConfig contains file operation settings.
type OperationsConfig struct {
	BackupBeforeRename bool   `yaml:"backupBeforeRename"`
	BackupDirName      string `yaml:"backupDirName"`
	FailFast           bool   `yaml:"failFast"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	LogOperations bool   `yaml:"logOperations"`
}

// ServerConfig contains server settings.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// LoadConfig loads configuration from config.yaml. Missing keys keep
// their default values.
func (m *Manager) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(m.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to config.yaml.
func (m *Manager) SaveConfig(config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Theme:               "light",
			Language:            "en",
			ShowTooltips:        true,
			ConfirmBeforeRename: true,
		},
		Defaults: DefaultsConfig{
			StartNumber:   1,
			ExtensionLock: true,
		},
		Operations: OperationsConfig{
			BackupDirName: "backup",
		},
		Logging: LoggingConfig{
			Level:         "info",
			LogOperations: true,
		},
		Server: ServerConfig{
			Port: 3000,
			Host: "localhost",
		},
	}
}
