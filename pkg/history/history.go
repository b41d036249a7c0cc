// Package history persists applied rename batches so they can be undone
// across application restarts.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("history")
}

// Store is the undo log contract consumed by the executor. It is
// injected by the host application rather than accessed as a singleton.
type Store interface {
	// AppendBatch durably records one applied batch with its records.
	AppendBatch(batch *models.Batch) error
	// GetBatch returns a batch with its records in application order,
	// or nil when the id is unknown.
	GetBatch(id string) (*models.Batch, error)
	// LatestBatch returns the most recently created batch, or nil when
	// the log is empty.
	LatestBatch() (*models.Batch, error)
	// ListBatches returns batches newest-first, records included.
	ListBatches(limit int) ([]*models.Batch, error)
	// RemoveBatch deletes a batch and all its records after a full undo.
	RemoveBatch(id string) error
	// RemoveRecords deletes individual records after a partial undo,
	// leaving the batch behind so the failed remainder can be retried.
	RemoveRecords(batchID string, recordIDs []int64) error
}

// DB is the SQLite-backed Store implementation.
type DB struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

var _ Store = (*DB)(nil)

// Open opens (creating if necessary) the history database at path.
// Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	log.WithField("path", path).Debug("Opening history database")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	h := &DB{db: db}
	if err := h.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	if err := h.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return h, nil
}

// Close closes the database connection.
func (h *DB) Close() error {
	if h.insertStmt != nil {
		h.insertStmt.Close()
	}
	return h.db.Close()
}

func (h *DB) init() error {
	if _, err := h.db.Exec(`CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		status TEXT CHECK(status IN ('completed', 'partially-failed')),
		created_at INTEGER NOT NULL
	)`); err != nil {
		return err
	}

	if _, err := h.db.Exec(`CREATE TABLE IF NOT EXISTS operation_records (
		id INTEGER PRIMARY KEY,
		batch_id TEXT NOT NULL,
		old_path TEXT NOT NULL,
		new_path TEXT NOT NULL,
		backup TEXT,
		applied_at INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		FOREIGN KEY (batch_id) REFERENCES batches(id) ON DELETE CASCADE
	)`); err != nil {
		return err
	}

	_, err := h.db.Exec("CREATE INDEX IF NOT EXISTS idx_records_batch ON operation_records(batch_id, seq)")
	return err
}

func (h *DB) prepareStatements() error {
	var err error
	h.insertStmt, err = h.db.Prepare(`
		INSERT INTO operation_records (batch_id, old_path, new_path, backup, applied_at, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	return err
}

// AppendBatch writes the batch and its records in one transaction.
func (h *DB) AppendBatch(batch *models.Batch) error {
	if batch.ID == "" {
		return fmt.Errorf("batch id cannot be empty")
	}

	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO batches (id, status, created_at) VALUES (?, ?, ?)`,
		batch.ID, batch.Status, batch.CreatedAt.Unix(),
	); err != nil {
		return err
	}

	stmt := tx.Stmt(h.insertStmt)
	defer stmt.Close()
	for _, rec := range batch.Records {
		var backup sql.NullString
		if rec.Backup != "" {
			backup = sql.NullString{String: rec.Backup, Valid: true}
		}
		if _, err := stmt.Exec(batch.ID, rec.OldPath, rec.NewPath, backup, rec.AppliedAt.Unix(), rec.Seq); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"batchID": batch.ID,
		"records": len(batch.Records),
	}).Info("Batch appended to history")
	return nil
}

// GetBatch retrieves a batch by id, records in ascending seq order.
func (h *DB) GetBatch(id string) (*models.Batch, error) {
	var batch models.Batch
	var createdAt int64

	err := h.db.QueryRow(`SELECT id, status, created_at FROM batches WHERE id = ?`, id).
		Scan(&batch.ID, &batch.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	batch.CreatedAt = time.Unix(createdAt, 0)

	records, err := h.records(id)
	if err != nil {
		return nil, err
	}
	batch.Records = records

	return &batch, nil
}

// LatestBatch returns the most recently created batch.
func (h *DB) LatestBatch() (*models.Batch, error) {
	var id string
	err := h.db.QueryRow(`SELECT id FROM batches ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h.GetBatch(id)
}

// ListBatches returns batches newest-first. limit <= 0 means no limit.
func (h *DB) ListBatches(limit int) ([]*models.Batch, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := h.db.Query(`SELECT id FROM batches ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	batches := make([]*models.Batch, 0, len(ids))
	for _, id := range ids {
		b, err := h.GetBatch(id)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// RemoveBatch deletes the batch and its records.
func (h *DB) RemoveBatch(id string) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM operation_records WHERE batch_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.Exec(`DELETE FROM batches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("batch %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.WithField("batchID", id).Info("Batch removed from history")
	return nil
}

// RemoveRecords deletes the given records of a batch after a partial
// undo. The batch stays listed with the remaining records.
func (h *DB) RemoveRecords(batchID string, recordIDs []int64) error {
	if len(recordIDs) == 0 {
		return nil
	}

	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range recordIDs {
		if _, err := tx.Exec(`DELETE FROM operation_records WHERE batch_id = ? AND id = ?`, batchID, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (h *DB) records(batchID string) ([]models.OperationRecord, error) {
	rows, err := h.db.Query(`
		SELECT id, batch_id, old_path, new_path, backup, applied_at, seq
		FROM operation_records
		WHERE batch_id = ?
		ORDER BY seq ASC
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.OperationRecord
	for rows.Next() {
		var rec models.OperationRecord
		var backup sql.NullString
		var appliedAt int64

		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.OldPath, &rec.NewPath, &backup, &appliedAt, &rec.Seq); err != nil {
			return nil, err
		}
		if backup.Valid {
			rec.Backup = backup.String
		}
		rec.AppliedAt = time.Unix(appliedAt, 0)
		records = append(records, rec)
	}

	return records, rows.Err()
}
