// Package executor applies an approved rename plan to the filesystem
// and records every successful rename in the injected history store.
//
// The executor never assumes exclusive access to the target directory:
// a name collision raced in after planning is a normal per-entry
// failure, not a programming error.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/history"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/planner"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("executor")
}

// Options configures one apply invocation.
type Options struct {
	// FailFast aborts the remaining entries after the first failure.
	// The default policy is best-effort: keep going and summarize.
	FailFast bool
	// Backup copies each file into a timestamped subfolder sibling to
	// the source before renaming it. Backup and rename form one unit:
	// a failed copy fails the entry and a failed rename removes the
	// copy, so no half-done state reaches the result silently.
	Backup bool
	// BackupDirName is the name of the backup subfolder created next to
	// the sources. A timestamp is appended.
	BackupDirName string
}

// Executor applies plans and reverses batches.
type Executor struct {
	store history.Store
	// now is split out for tests.
	now func() time.Time
}

// New creates an executor writing to the given history store.
func New(store history.Store) *Executor {
	return &Executor{store: store, now: time.Now}
}

// Apply walks the plan in order and attempts every entry with status ok.
// Entries with any other status are reported as skipped, never
// attempted. The batch is appended to the history store only when at
// least one rename succeeded.
//
// Cancellation stops after the entry in flight completes; renames are
// atomic OS operations with no mid-file cancellation point.
func (x *Executor) Apply(ctx context.Context, plan *planner.Plan, opts Options) (*models.BatchResult, error) {
	result := &models.BatchResult{Status: models.BatchCompleted}
	batch := &models.Batch{
		ID:        uuid.New().String(),
		CreatedAt: x.now(),
	}

	backupDir := ""
	if opts.Backup {
		name := opts.BackupDirName
		if name == "" {
			name = "backup"
		}
		backupDir = fmt.Sprintf("%s_%s", name, batch.CreatedAt.Format("20060102_150405"))
	}

	aborted := false
	for i := range plan.Entries {
		pe := &plan.Entries[i]

		if pe.Status != models.StatusOK {
			result.Entries = append(result.Entries, models.EntryResult{
				OldPath: pe.Entry.Path,
				NewPath: pe.NewPath,
				Outcome: models.OutcomeSkipped,
				Reason:  skipReason(pe),
			})
			result.Skipped++
			continue
		}

		if aborted {
			result.Entries = append(result.Entries, models.EntryResult{
				OldPath: pe.Entry.Path,
				NewPath: pe.NewPath,
				Outcome: models.OutcomeSkipped,
				Reason:  "aborted by fail-fast policy",
			})
			result.Skipped++
			continue
		}

		if err := ctx.Err(); err != nil {
			result.Entries = append(result.Entries, models.EntryResult{
				OldPath: pe.Entry.Path,
				NewPath: pe.NewPath,
				Outcome: models.OutcomeSkipped,
				Reason:  "cancelled",
			})
			result.Skipped++
			continue
		}

		backupPath, err := x.renameOne(pe, backupDir, opts.Backup)
		if err != nil {
			log.WithError(err).WithField("path", pe.Entry.Path).Warn("Rename failed")
			result.Entries = append(result.Entries, models.EntryResult{
				OldPath: pe.Entry.Path,
				NewPath: pe.NewPath,
				Outcome: models.OutcomeFailed,
				Reason:  err.Error(),
			})
			result.Failed++
			if opts.FailFast {
				aborted = true
			}
			continue
		}

		// The record is appended only after the rename call returned
		// success.
		batch.Records = append(batch.Records, models.OperationRecord{
			BatchID:   batch.ID,
			OldPath:   pe.Entry.Path,
			NewPath:   pe.NewPath,
			Backup:    backupPath,
			AppliedAt: x.now(),
			Seq:       len(batch.Records),
		})
		result.Entries = append(result.Entries, models.EntryResult{
			OldPath: pe.Entry.Path,
			NewPath: pe.NewPath,
			Outcome: models.OutcomeApplied,
		})
		result.Applied++
	}

	if result.Failed > 0 {
		result.Status = models.BatchPartiallyFailed
	}
	batch.Status = result.Status

	if len(batch.Records) > 0 {
		if err := x.store.AppendBatch(batch); err != nil {
			// The renames happened; losing the log entry would strand
			// them without an undo path.
			return result, fmt.Errorf("renames applied but history write failed: %w", err)
		}
		result.BatchID = batch.ID
	}

	if logger.OperationLogging() {
		log.WithFields(logrus.Fields{
			"batchID": result.BatchID,
			"applied": result.Applied,
			"skipped": result.Skipped,
			"failed":  result.Failed,
		}).Info("Apply finished")
	}

	return result, nil
}

// renameOne performs the backup-then-rename unit for a single entry.
func (x *Executor) renameOne(pe *models.PreviewEntry, backupDir string, backup bool) (string, error) {
	// A collision created since the preview was computed is a normal
	// failure. Stat cannot be fully race-free; the check narrows the
	// window and gives a better message than the OS error. On a
	// case-folding volume the candidate name can stat to the source
	// itself; that is a case-only rename, not an occupied target.
	if _, err := os.Stat(pe.NewPath); err == nil && pe.Entry.Path != pe.NewPath && !sameFile(pe.Entry.Path, pe.NewPath) {
		return "", fmt.Errorf("target already exists: %s", pe.NewPath)
	}

	backupPath := ""
	if backup {
		dir := filepath.Join(filepath.Dir(pe.Entry.Path), backupDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("backup folder: %w", err)
		}
		backupPath = filepath.Join(dir, pe.Entry.Name)
		if err := copyAndVerify(pe.Entry.Path, backupPath); err != nil {
			return "", fmt.Errorf("backup copy: %w", err)
		}
	}

	if err := os.Rename(pe.Entry.Path, pe.NewPath); err != nil {
		if backupPath != "" {
			// Keep backup and rename a single unit: drop the copy so a
			// failed entry leaves no half-done state behind.
			removeBackup(backupPath)
		}
		return "", err
	}

	return backupPath, nil
}

// sameFile reports whether the two paths resolve to one file, through
// device and inode rather than string comparison.
func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// removeBackup drops a backup copy whose rename never happened. The
// removal is best effort; an orphaned copy is worth a warning, not a
// second failure.
func removeBackup(path string) {
	if err := os.Remove(path); err != nil {
		log.WithError(err).WithField("backup", path).Warn("Could not remove orphaned backup copy")
	}
}

// copyAndVerify copies src to dst and confirms the copy is complete
// before the caller may rename the source.
func copyAndVerify(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	written, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return err
	}

	if written != srcInfo.Size() {
		os.Remove(dst)
		return fmt.Errorf("backup incomplete: wrote %d of %d bytes", written, srcInfo.Size())
	}
	return nil
}

func skipReason(pe *models.PreviewEntry) string {
	if pe.Reason != "" {
		return fmt.Sprintf("%s: %s", pe.Status, pe.Reason)
	}
	return string(pe.Status)
}
