package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/history"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/planner"
)

func intPtr(n int) *int {
	return &n
}

func writeFiles(t *testing.T, dir string, names ...string) []*models.FileEntry {
	t.Helper()
	var entries []*models.FileEntry
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0o644))
		info, err := os.Stat(path)
		require.NoError(t, err)
		entries = append(entries, &models.FileEntry{
			ID:    name,
			Path:  path,
			Name:  name,
			Size:  info.Size(),
			Mtime: info.ModTime(),
			Ext:   filepath.Ext(name),
		})
	}
	return entries
}

func buildPlan(t *testing.T, entries []*models.FileEntry, naming models.NamingConfig) *planner.Plan {
	t.Helper()
	plan, err := planner.Build(entries, naming, models.FilterConfig{}, planner.Options{})
	require.NoError(t, err)
	return plan
}

func newExecutor(t *testing.T) (*Executor, *history.DB) {
	t.Helper()
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store), store
}

func TestApplyRenamesAndRecordsBatch(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "a.txt", "b.txt")
	plan := buildPlan(t, entries, models.NamingConfig{Prefix: "new_", ExtensionLock: true})

	x, store := newExecutor(t)
	result, err := x.Apply(context.Background(), plan, Options{})
	require.NoError(t, err)

	assert.Equal(t, models.BatchCompleted, result.Status)
	assert.Equal(t, 2, result.Applied)
	assert.Zero(t, result.Failed)
	assert.FileExists(t, filepath.Join(dir, "new_a.txt"))
	assert.FileExists(t, filepath.Join(dir, "new_b.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))

	batch, err := store.GetBatch(result.BatchID)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Len(t, batch.Records, 2)
}

func TestApplySkipsConflictAndFilteredEntries(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "a.txt", "b.txt")
	// Identical base name without numbering: both collide.
	plan := buildPlan(t, entries, models.NamingConfig{BaseName: "same", ExtensionLock: true})

	x, store := newExecutor(t)
	result, err := x.Apply(context.Background(), plan, Options{})
	require.NoError(t, err)

	assert.Zero(t, result.Applied)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, result.BatchID)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))

	// No batch is recorded when nothing was renamed.
	latest, err := store.LatestBatch()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestApplyBestEffortOnMidBatchFailure(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "one.txt", "two.txt", "three.txt")
	naming := models.NamingConfig{
		BaseName:      "out",
		StartNumber:   intPtr(1),
		PadWidth:      2,
		ExtensionLock: true,
	}
	plan := buildPlan(t, entries, naming)

	// Race in a file at the second entry's target after planning.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out_02.txt"), []byte("squatter"), 0o644))

	x, store := newExecutor(t)
	result, err := x.Apply(context.Background(), plan, Options{})
	require.NoError(t, err)

	assert.Equal(t, models.BatchPartiallyFailed, result.Status)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 1, result.Failed)

	// Entries 1 and 3 succeeded under best-effort; the undo log holds a
	// two-record batch.
	assert.FileExists(t, filepath.Join(dir, "out_01.txt"))
	assert.FileExists(t, filepath.Join(dir, "out_03.txt"))
	assert.FileExists(t, filepath.Join(dir, "two.txt"))

	batch, err := store.GetBatch(result.BatchID)
	require.NoError(t, err)
	assert.Len(t, batch.Records, 2)
}

func TestApplyFailFastAbortsRemainder(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "one.txt", "two.txt", "three.txt")
	naming := models.NamingConfig{
		BaseName:      "out",
		StartNumber:   intPtr(1),
		PadWidth:      2,
		ExtensionLock: true,
	}
	plan := buildPlan(t, entries, naming)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out_02.txt"), []byte("squatter"), 0o644))

	x, _ := newExecutor(t)
	result, err := x.Apply(context.Background(), plan, Options{FailFast: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.FileExists(t, filepath.Join(dir, "three.txt"))

	var reasons []string
	for _, e := range result.Entries {
		reasons = append(reasons, e.Reason)
	}
	assert.Contains(t, reasons, "aborted by fail-fast policy")
}

func TestApplyWithBackup(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "doc.txt")
	plan := buildPlan(t, entries, models.NamingConfig{Prefix: "x_", ExtensionLock: true})

	x, store := newExecutor(t)
	result, err := x.Apply(context.Background(), plan, Options{Backup: true, BackupDirName: "safety"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Applied)

	batch, err := store.GetBatch(result.BatchID)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	backupPath := batch.Records[0].Backup
	require.NotEmpty(t, backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "content of doc.txt", string(data))
	assert.Contains(t, filepath.Base(filepath.Dir(backupPath)), "safety_")
}

func TestApplyChainFreedInPlanOrder(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "x_2.txt", "b.txt")
	naming := models.NamingConfig{BaseName: "x", StartNumber: intPtr(1), ExtensionLock: true}
	plan := buildPlan(t, entries, naming)

	// x_2.txt moves to x_1.txt first, so b.txt finds x_2.txt free.
	x, _ := newExecutor(t)
	result, err := x.Apply(context.Background(), plan, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.Zero(t, result.Failed)
	assert.FileExists(t, filepath.Join(dir, "x_1.txt"))
	assert.FileExists(t, filepath.Join(dir, "x_2.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
}

func TestRenameOneCaseFoldedTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.JPG")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	// A second directory entry for the same inode stands in for the
	// stat hit a case-folding volume produces for the candidate name.
	dst := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.Link(src, dst))

	x, _ := newExecutor(t)
	pe := &models.PreviewEntry{
		Entry:   &models.FileEntry{Path: src, Name: "photo.JPG"},
		NewName: "photo.jpg",
		NewPath: dst,
		Status:  models.StatusOK,
	}
	_, err := x.renameOne(pe, "", false)
	assert.NoError(t, err)
	assert.FileExists(t, dst)
}

func TestUndoOneCaseFoldedOriginal(t *testing.T) {
	dir := t.TempDir()
	renamed := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(renamed, []byte("x"), 0o644))

	// The occupant of the original path is the renamed file itself, as
	// on a case-folding volume after a case-only rename.
	original := filepath.Join(dir, "photo.JPG")
	require.NoError(t, os.Link(renamed, original))

	err := undoOne(models.OperationRecord{OldPath: original, NewPath: renamed})
	assert.NoError(t, err)
	assert.FileExists(t, original)
}

func TestRemoveBackupWarnsOnFailure(t *testing.T) {
	hook := logtest.NewLocal(logger.GetLogger())
	defer hook.Reset()

	dir := t.TempDir()
	backup := filepath.Join(dir, "backup")
	require.NoError(t, os.MkdirAll(filepath.Join(backup, "nested"), 0o755))

	// A non-empty directory cannot be removed, so the orphan warning
	// fires instead of a silent leak.
	removeBackup(backup)

	require.NotEmpty(t, hook.Entries)
	last := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, backup, last.Data["backup"])
}

func TestApplyCancelledContextSkips(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "a.txt")
	plan := buildPlan(t, entries, models.NamingConfig{Prefix: "n_", ExtensionLock: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x, _ := newExecutor(t)
	result, err := x.Apply(ctx, plan, Options{})
	require.NoError(t, err)
	assert.Zero(t, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
}

func TestUndoRestoresBatchAndClearsLog(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "a.txt", "b.txt")
	plan := buildPlan(t, entries, models.NamingConfig{Prefix: "new_", ExtensionLock: true})

	x, store := newExecutor(t)
	applied, err := x.Apply(context.Background(), plan, Options{})
	require.NoError(t, err)

	undo, err := x.UndoLast(context.Background())
	require.NoError(t, err)
	assert.True(t, undo.Complete)
	assert.Equal(t, 2, undo.Restored)
	assert.Equal(t, applied.BatchID, undo.BatchID)

	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "new_a.txt"))

	batch, err := store.GetBatch(applied.BatchID)
	require.NoError(t, err)
	assert.Nil(t, batch)

	_, err = x.UndoLast(context.Background())
	assert.Error(t, err)
}

func TestUndoByBatchID(t *testing.T) {
	dir := t.TempDir()
	first := writeFiles(t, dir, "a.txt")
	plan := buildPlan(t, first, models.NamingConfig{Prefix: "one_", ExtensionLock: true})

	x, _ := newExecutor(t)
	r1, err := x.Apply(context.Background(), plan, Options{})
	require.NoError(t, err)

	second := writeFiles(t, dir, "b.txt")
	plan2 := buildPlan(t, second, models.NamingConfig{Prefix: "two_", ExtensionLock: true})
	_, err = x.Apply(context.Background(), plan2, Options{})
	require.NoError(t, err)

	// Undo the older batch while the newer one stays applied.
	undo, err := x.Undo(context.Background(), r1.BatchID)
	require.NoError(t, err)
	assert.True(t, undo.Complete)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "two_b.txt"))

	_, err = x.Undo(context.Background(), "no-such-batch")
	assert.Error(t, err)
}

func TestUndoPartialFailureKeepsRemainder(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "a.txt", "b.txt", "c.txt")
	plan := buildPlan(t, entries, models.NamingConfig{Prefix: "r_", ExtensionLock: true})

	x, store := newExecutor(t)
	applied, err := x.Apply(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, applied.Applied)

	// Occupy one original path with an unrelated file and remove
	// another renamed file entirely.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("unrelated"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "r_c.txt")))

	undo, err := x.UndoLast(context.Background())
	require.NoError(t, err)
	assert.False(t, undo.Complete)
	assert.Equal(t, 1, undo.Restored)
	assert.Equal(t, 2, undo.Failed)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))

	// The batch stays in the log with only the records that failed to
	// undo, so the user can retry.
	batch, err := store.GetBatch(applied.BatchID)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Len(t, batch.Records, 2)
}

func TestUndoReversesApplicationOrder(t *testing.T) {
	dir := t.TempDir()
	entries := writeFiles(t, dir, "a.txt", "b.txt", "c.txt")
	plan := buildPlan(t, entries, models.NamingConfig{Prefix: "z_", ExtensionLock: true})

	x, _ := newExecutor(t)
	_, err := x.Apply(context.Background(), plan, Options{})
	require.NoError(t, err)

	undo, err := x.UndoLast(context.Background())
	require.NoError(t, err)
	require.Len(t, undo.Entries, 3)

	// Last-applied entry is undone first.
	assert.Equal(t, filepath.Join(dir, "z_c.txt"), undo.Entries[0].OldPath)
	assert.Equal(t, filepath.Join(dir, "z_a.txt"), undo.Entries[2].OldPath)
}
