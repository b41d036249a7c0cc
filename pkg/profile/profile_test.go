package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
)

func intPtr(n int) *int {
	return &n
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "profiles"))
	require.NoError(t, err)
	return m
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	m := newTestManager(t)

	naming := models.NamingConfig{
		Prefix:        "IMG_",
		BaseName:      "vacation",
		StartNumber:   intPtr(1),
		PadWidth:      3,
		ExtensionLock: true,
		AutoClean: models.AutoCleanConfig{
			RemoveAccents: true,
			Spaces:        models.SpaceUnderscore,
			Case:          models.CaseLower,
		},
	}
	filter := models.FilterConfig{
		Extensions: []string{"jpg", "png"},
		Size:       &models.SizeFilter{Op: models.SizeGreater, Threshold: 1024},
	}

	saved, err := m.Save("vacation-photos", naming, filter)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, saved.Metadata.Version)
	assert.False(t, saved.Metadata.Created.IsZero())

	loaded, err := m.Load("vacation-photos")
	require.NoError(t, err)
	assert.Equal(t, naming, loaded.Naming)
	assert.Equal(t, filter, loaded.Filter)
	assert.Equal(t, "vacation-photos", loaded.Name)
}

func TestSaveRejectsInvalidName(t *testing.T) {
	m := newTestManager(t)

	for _, name := range []string{"", "../escape", ".hidden", "bad/slash"} {
		_, err := m.Save(name, models.NamingConfig{}, models.FilterConfig{})
		assert.Error(t, err, "name %q", name)
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Save("p", models.NamingConfig{Prefix: "old_"}, models.FilterConfig{})
	require.NoError(t, err)
	_, err = m.Save("p", models.NamingConfig{Prefix: "new_"}, models.FilterConfig{})
	require.NoError(t, err)

	loaded, err := m.Load("p")
	require.NoError(t, err)
	assert.Equal(t, "new_", loaded.Naming.Prefix)
}

func TestLoadUnknownProfile(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Load("missing")
	assert.ErrorContains(t, err, "profile not found")
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	m := newTestManager(t)

	data := []byte(`{
		"name": "future",
		"naming": {"prefix": "x_"},
		"filter": {},
		"futureFeature": {"nested": true},
		"_metadata": {"version": 99, "created": "2030-01-01T00:00:00Z"}
	}`)
	require.NoError(t, os.WriteFile(filepath.Join(m.BasePath(), "future.json"), data, 0o644))

	loaded, err := m.Load("future")
	require.NoError(t, err)
	assert.Equal(t, "x_", loaded.Naming.Prefix)
	assert.Equal(t, 99, loaded.Metadata.Version)
}

func TestLoadMalformedJSON(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(m.BasePath(), "broken.json"), []byte("{oops"), 0o644))

	_, err := m.Load("broken")
	assert.Error(t, err)
}

func TestListSortedAndFiltered(t *testing.T) {
	m := newTestManager(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := m.Save(name, models.NamingConfig{}, models.FilterConfig{})
		require.NoError(t, err)
	}
	// Non-profile files are not listed.
	require.NoError(t, os.WriteFile(filepath.Join(m.BasePath(), "notes.txt"), []byte("x"), 0o644))

	names, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestDeleteAndExists(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Save("p", models.NamingConfig{}, models.FilterConfig{})
	require.NoError(t, err)
	assert.True(t, m.Exists("p"))

	require.NoError(t, m.Delete("p"))
	assert.False(t, m.Exists("p"))
	assert.Error(t, m.Delete("p"))
}
