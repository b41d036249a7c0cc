package models

import "time"

// FileEntry represents one file in the working set.
type FileEntry struct {
	// ID is a stable identity for the entry. It survives preview
	// regeneration even though the display name may change.
	ID       string    `json:"id"`
	Path     string    `json:"path"` // absolute
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Mtime    time.Time `json:"mtime"`
	Ext      string    `json:"ext"` // with leading dot, as found on disk
	Selected bool      `json:"selected"`
	// MetaErr records a stat failure. Entries with unreadable metadata
	// are excluded from plans with a warning instead of aborting.
	MetaErr string `json:"meta_err,omitempty"`
}

// CaseMode selects a case conversion applied to the filename stem.
type CaseMode string

const (
	CaseNone  CaseMode = ""
	CaseLower CaseMode = "lower"
	CaseUpper CaseMode = "upper"
	CaseTitle CaseMode = "title"
	CaseCamel CaseMode = "camel"
)

// SpaceMode selects how whitespace runs in the stem are rewritten.
type SpaceMode string

const (
	SpaceKeep       SpaceMode = ""
	SpaceUnderscore SpaceMode = "underscore"
	SpaceHyphen     SpaceMode = "hyphen"
	SpaceDelete     SpaceMode = "delete"
)

// AutoCleanConfig holds the text-normalization transforms applied to a
// stem. The order is fixed: accents, special characters, spaces, case.
type AutoCleanConfig struct {
	RemoveAccents      bool `json:"remove_accents" yaml:"removeAccents"`
	RemoveSpecialChars bool `json:"remove_special_chars" yaml:"removeSpecialChars"`
	// SpecialReplace substitutes an underscore for stripped characters
	// instead of deleting them.
	SpecialReplace bool      `json:"special_replace" yaml:"specialReplace"`
	Spaces         SpaceMode `json:"spaces" yaml:"spaces"`
	Case           CaseMode  `json:"case" yaml:"case"`
}

// Enabled reports whether any transform is switched on.
func (c AutoCleanConfig) Enabled() bool {
	return c.RemoveAccents || c.RemoveSpecialChars || c.Spaces != SpaceKeep || c.Case != CaseNone
}

// NamingConfig describes how candidate names are built.
type NamingConfig struct {
	Prefix   string `json:"prefix" yaml:"prefix"`
	Suffix   string `json:"suffix" yaml:"suffix"`
	BaseName string `json:"base_name" yaml:"baseName"`
	// StartNumber enables sequence numbering when non-nil. Numbers are
	// assigned per included file, never per raw file.
	StartNumber *int `json:"start_number,omitempty" yaml:"startNumber,omitempty"`
	PadWidth    int  `json:"pad_width" yaml:"padWidth"`
	// ExtensionLock keeps the original extension regardless of what the
	// transforms produce. Enabled by default.
	ExtensionLock bool            `json:"extension_lock" yaml:"extensionLock"`
	AutoClean     AutoCleanConfig `json:"auto_clean" yaml:"autoClean"`
}

// SizeOp is a size filter comparator.
type SizeOp string

const (
	SizeGreater SizeOp = ">"
	SizeLess    SizeOp = "<"
	SizeEqual   SizeOp = "="
)

// DateOp is a date filter comparator.
type DateOp string

const (
	DateBefore DateOp = "before"
	DateAfter  DateOp = "after"
	DateOn     DateOp = "on" // same calendar day
)

// Scope restricts a filter to the selection state of entries.
type Scope string

const (
	ScopeAll        Scope = ""
	ScopeSelected   Scope = "selected"
	ScopeUnselected Scope = "unselected"
)

// SizeFilter compares file size in bytes. Equal means exact-byte equality.
type SizeFilter struct {
	Op        SizeOp `json:"op" yaml:"op"`
	Threshold int64  `json:"threshold" yaml:"threshold"`
}

// DateFilter compares the modification time.
type DateFilter struct {
	Op   DateOp    `json:"op" yaml:"op"`
	Date time.Time `json:"date" yaml:"date"`
}

// FilterConfig holds the AND-ed inclusion predicates. A nil predicate is
// vacuously true.
type FilterConfig struct {
	Extensions []string    `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Size       *SizeFilter `json:"size,omitempty" yaml:"size,omitempty"`
	Date       *DateFilter `json:"date,omitempty" yaml:"date,omitempty"`
	Scope      Scope       `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// PreviewStatus classifies one entry of a plan.
type PreviewStatus string

const (
	StatusOK          PreviewStatus = "ok"
	StatusConflict    PreviewStatus = "conflict"
	StatusFilteredOut PreviewStatus = "filtered-out"
	StatusUnchanged   PreviewStatus = "unchanged"
	StatusWarning     PreviewStatus = "warning"
)

// PreviewEntry is one row of a computed plan. Ephemeral, recomputed on
// every configuration change.
type PreviewEntry struct {
	Entry   *FileEntry    `json:"entry"`
	NewName string        `json:"new_name"`
	NewPath string        `json:"new_path"`
	Status  PreviewStatus `json:"status"`
	Reason  string        `json:"reason,omitempty"`
}

// OperationRecord is one durable record of a successful rename. It is
// appended only after the filesystem rename returned success.
type OperationRecord struct {
	ID        int64     `json:"id,omitempty"`
	BatchID   string    `json:"batch_id"`
	OldPath   string    `json:"old_path"`
	NewPath   string    `json:"new_path"`
	Backup    string    `json:"backup,omitempty"`
	AppliedAt time.Time `json:"applied_at"`
	// Seq is the application order within the batch. Undo walks records
	// in descending Seq.
	Seq int `json:"seq"`
}

// Batch groups the records of one apply invocation.
type Batch struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Status    string            `json:"status"`
	Records   []OperationRecord `json:"records,omitempty"`
}

// Batch status values.
const (
	BatchCompleted       = "completed"
	BatchPartiallyFailed = "partially-failed"
)

// EntryOutcome enumerates what happened to one plan entry at apply time.
type EntryOutcome string

const (
	OutcomeApplied EntryOutcome = "applied"
	OutcomeSkipped EntryOutcome = "skipped"
	OutcomeFailed  EntryOutcome = "failed"
)

// EntryResult reports the per-entry outcome of an apply or undo pass.
type EntryResult struct {
	OldPath string       `json:"old_path"`
	NewPath string       `json:"new_path"`
	Outcome EntryOutcome `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
}

// BatchResult summarizes one apply invocation. Nothing is silently
// dropped: every plan entry appears exactly once.
type BatchResult struct {
	BatchID string        `json:"batch_id,omitempty"`
	Status  string        `json:"status"`
	Entries []EntryResult `json:"entries"`
	Applied int           `json:"applied"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
}

// UndoResult summarizes one undo invocation.
type UndoResult struct {
	BatchID  string        `json:"batch_id"`
	Entries  []EntryResult `json:"entries"`
	Restored int           `json:"restored"`
	Failed   int           `json:"failed"`
	// Complete is true when every record of the batch was undone and the
	// batch was removed from the log.
	Complete bool `json:"complete"`
}
