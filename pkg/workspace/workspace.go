// Package workspace holds the bounded, in-memory working set of files a
// rename session operates on. The set is owned by a single caller; the
// workspace itself does no locking.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/pathutil"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("workspace")
}

// Workspace is the working set. Entries keep their add order, which is
// the order the planner and executor walk them in.
type Workspace struct {
	entries []*models.FileEntry
	byPath  map[string]*models.FileEntry
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{byPath: make(map[string]*models.FileEntry)}
}

// AddFile adds a single file to the working set. Adding a path that is
// already present is a no-op returning the existing entry. A file whose
// metadata cannot be read is still added, carrying the stat error, so
// the user sees it listed rather than silently dropped.
func (w *Workspace) AddFile(path string) (*models.FileEntry, error) {
	absPath, err := pathutil.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	if existing, ok := w.byPath[absPath]; ok {
		return existing, nil
	}

	entry := &models.FileEntry{
		ID:   uuid.New().String(),
		Path: absPath,
		Name: filepath.Base(absPath),
		Ext:  filepath.Ext(absPath),
	}

	info, err := os.Stat(absPath)
	switch {
	case err == nil:
		if info.IsDir() {
			return nil, fmt.Errorf("not a file: %s", absPath)
		}
		entry.Size = info.Size()
		entry.Mtime = info.ModTime()
	case os.IsNotExist(err):
		return nil, fmt.Errorf("file not found: %s", absPath)
	default:
		entry.MetaErr = err.Error()
		log.WithError(err).WithField("path", absPath).Warn("Failed to read file metadata")
	}

	w.entries = append(w.entries, entry)
	w.byPath[absPath] = entry
	return entry, nil
}

// AddDir adds every regular file directly inside dir, sorted by name.
// Subdirectories are not descended into. Returns the number of entries
// added, not counting paths already present.
func (w *Workspace) AddDir(dir string) (int, error) {
	absDir, err := pathutil.ExpandAndValidatePath(dir)
	if err != nil {
		return 0, err
	}

	dirEntries, err := os.ReadDir(absDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)

	added := 0
	for _, name := range names {
		path := filepath.Join(absDir, name)
		if _, ok := w.byPath[path]; ok {
			continue
		}
		if _, err := w.AddFile(path); err != nil {
			log.WithError(err).WithField("path", path).Warn("Skipping file")
			continue
		}
		added++
	}

	log.WithFields(logrus.Fields{"dir": absDir, "added": added}).Debug("Directory added")
	return added, nil
}

// Entries returns the working set in add order. The slice is shared;
// callers must not reorder it.
func (w *Workspace) Entries() []*models.FileEntry {
	return w.entries
}

// Len returns the number of entries.
func (w *Workspace) Len() int {
	return len(w.entries)
}

// Get returns the entry with the given id, or nil.
func (w *Workspace) Get(id string) *models.FileEntry {
	for _, e := range w.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Remove drops the entry with the given id from the working set.
func (w *Workspace) Remove(id string) error {
	for i, e := range w.entries {
		if e.ID == id {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			delete(w.byPath, e.Path)
			return nil
		}
	}
	return fmt.Errorf("entry not found: %s", id)
}

// Clear empties the working set.
func (w *Workspace) Clear() {
	w.entries = nil
	w.byPath = make(map[string]*models.FileEntry)
}

// SetSelected marks one entry's selection flag.
func (w *Workspace) SetSelected(id string, selected bool) error {
	e := w.Get(id)
	if e == nil {
		return fmt.Errorf("entry not found: %s", id)
	}
	e.Selected = selected
	return nil
}

// SelectAll sets every entry's selection flag.
func (w *Workspace) SelectAll(selected bool) {
	for _, e := range w.entries {
		e.Selected = selected
	}
}

// Refresh re-reads metadata for every entry and drops entries whose
// underlying file disappeared, as happens after an applied batch renamed
// them. Returns the number of entries dropped.
func (w *Workspace) Refresh() int {
	kept := w.entries[:0]
	dropped := 0

	for _, e := range w.entries {
		info, err := os.Stat(e.Path)
		switch {
		case err == nil:
			e.Size = info.Size()
			e.Mtime = info.ModTime()
			e.MetaErr = ""
			kept = append(kept, e)
		case os.IsNotExist(err):
			delete(w.byPath, e.Path)
			dropped++
		default:
			e.MetaErr = err.Error()
			kept = append(kept, e)
		}
	}

	w.entries = kept
	if dropped > 0 {
		log.WithField("dropped", dropped).Debug("Workspace refreshed")
	}
	return dropped
}
