package executor

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
)

// UndoLast reverses the most recently applied batch.
func (x *Executor) UndoLast(ctx context.Context) (*models.UndoResult, error) {
	batch, err := x.store.LatestBatch()
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("nothing left to undo")
	}
	return x.undoBatch(ctx, batch)
}

// Undo reverses the batch with the given id.
func (x *Executor) Undo(ctx context.Context, batchID string) (*models.UndoResult, error) {
	batch, err := x.store.GetBatch(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("batch %s not found", batchID)
	}
	return x.undoBatch(ctx, batch)
}

// undoBatch renames each record's new path back to its original path,
// last-applied file first. Per-entry failures never abort the rest;
// undone records leave the log and failed ones stay behind for retry.
func (x *Executor) undoBatch(ctx context.Context, batch *models.Batch) (*models.UndoResult, error) {
	result := &models.UndoResult{BatchID: batch.ID}
	var undone []int64

	for i := len(batch.Records) - 1; i >= 0; i-- {
		rec := batch.Records[i]

		if err := ctx.Err(); err != nil {
			result.Entries = append(result.Entries, models.EntryResult{
				OldPath: rec.NewPath,
				NewPath: rec.OldPath,
				Outcome: models.OutcomeSkipped,
				Reason:  "cancelled",
			})
			result.Failed++
			continue
		}

		if err := undoOne(rec); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"batchID": batch.ID,
				"path":    rec.NewPath,
			}).Warn("Undo failed for entry")
			result.Entries = append(result.Entries, models.EntryResult{
				OldPath: rec.NewPath,
				NewPath: rec.OldPath,
				Outcome: models.OutcomeFailed,
				Reason:  err.Error(),
			})
			result.Failed++
			continue
		}

		result.Entries = append(result.Entries, models.EntryResult{
			OldPath: rec.NewPath,
			NewPath: rec.OldPath,
			Outcome: models.OutcomeApplied,
		})
		result.Restored++
		undone = append(undone, rec.ID)
	}

	if result.Failed == 0 {
		if err := x.store.RemoveBatch(batch.ID); err != nil {
			return result, fmt.Errorf("files restored but history update failed: %w", err)
		}
		result.Complete = true
	} else if len(undone) > 0 {
		if err := x.store.RemoveRecords(batch.ID, undone); err != nil {
			return result, fmt.Errorf("files restored but history update failed: %w", err)
		}
	}

	if logger.OperationLogging() {
		log.WithFields(logrus.Fields{
			"batchID":  batch.ID,
			"restored": result.Restored,
			"failed":   result.Failed,
		}).Info("Undo finished")
	}

	return result, nil
}

func undoOne(rec models.OperationRecord) error {
	if _, err := os.Stat(rec.NewPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("renamed file no longer exists: %s", rec.NewPath)
		}
		return err
	}

	// The original path being occupied again means an unrelated file
	// took it; restoring would clobber it. When the occupant is the
	// renamed file itself the rename was case-only and reversing it is
	// safe.
	if _, err := os.Stat(rec.OldPath); err == nil && !sameFile(rec.NewPath, rec.OldPath) {
		return fmt.Errorf("original path occupied: %s", rec.OldPath)
	}

	return os.Rename(rec.NewPath, rec.OldPath)
}
