// Package profile persists named rename configurations as JSON files
// so a naming and filter setup can be saved once and reapplied later.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("profile")
}

// FormatVersion is written into every saved profile. Loaders ignore
// fields they do not recognize, so newer files stay readable.
const FormatVersion = 1

// validProfileName defines valid profile name characters.
var validProfileName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _-]*$`)

// Metadata describes when and by which format a profile was written.
type Metadata struct {
	Version int       `json:"version"`
	Created time.Time `json:"created"`
}

// Profile is a named, reusable rename configuration.
type Profile struct {
	Name     string              `json:"name"`
	Naming   models.NamingConfig `json:"naming"`
	Filter   models.FilterConfig `json:"filter"`
	Metadata Metadata            `json:"_metadata"`
}

// Manager stores profiles as <name>.json files under a base directory.
type Manager struct {
	basePath string
	mu       sync.RWMutex
}

// NewManager creates a profile manager rooted at basePath, creating the
// directory when missing.
func NewManager(basePath string) (*Manager, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profiles path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profiles directory: %w", err)
	}

	return &Manager{basePath: absPath}, nil
}

// BasePath returns the profiles directory path.
func (m *Manager) BasePath() string {
	return m.basePath
}

// Save writes the profile to <name>.json, overwriting any previous
// version of the same name.
func (m *Manager) Save(name string, naming models.NamingConfig, filter models.FilterConfig) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !validProfileName.MatchString(name) {
		return nil, fmt.Errorf("invalid profile name: must start with alphanumeric and contain only alphanumeric, space, underscore, or hyphen")
	}

	profile := &Profile{
		Name:   name,
		Naming: naming,
		Filter: filter,
		Metadata: Metadata{
			Version: FormatVersion,
			Created: time.Now(),
		},
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(m.profilePath(name), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write profile: %w", err)
	}

	log.WithField("name", name).Info("Profile saved")
	return profile, nil
}

// Load reads a profile by name.
func (m *Manager) Load(name string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.profilePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("profile not found: %s", name)
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", name, err)
	}

	// The filename wins over whatever the file claims; a copied file
	// keeps working under its new name.
	profile.Name = name
	return &profile, nil
}

// List returns the names of all stored profiles, sorted.
func (m *Manager) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := os.ReadDir(m.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}

	sort.Strings(names)
	return names, nil
}

// Delete removes a stored profile.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.profilePath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("profile not found: %s", name)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	log.WithField("name", name).Info("Profile deleted")
	return nil
}

// Exists checks whether a profile with the given name is stored.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.profilePath(name))
	return err == nil
}

func (m *Manager) profilePath(name string) string {
	return filepath.Join(m.basePath, name+".json")
}
