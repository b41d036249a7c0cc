// Package filter decides which working-set entries take part in a
// rename pass. All configured predicates are ANDed; an unconfigured
// predicate is vacuously true.
package filter

import (
	"fmt"
	"strings"

	"github.com/renamekit/renamekit/internal/models"
)

// ValidateConfig rejects malformed filter configurations at config-entry
// time so they never reach the planner.
func ValidateConfig(cfg models.FilterConfig) error {
	if cfg.Size != nil {
		switch cfg.Size.Op {
		case models.SizeGreater, models.SizeLess, models.SizeEqual:
		default:
			return fmt.Errorf("unknown size comparator %q", cfg.Size.Op)
		}
		if cfg.Size.Threshold < 0 {
			return fmt.Errorf("size threshold must not be negative, got %d", cfg.Size.Threshold)
		}
	}
	if cfg.Date != nil {
		switch cfg.Date.Op {
		case models.DateBefore, models.DateAfter, models.DateOn:
		default:
			return fmt.Errorf("unknown date comparator %q", cfg.Date.Op)
		}
		if cfg.Date.Date.IsZero() {
			return fmt.Errorf("date filter requires a date")
		}
	}
	switch cfg.Scope {
	case models.ScopeAll, models.ScopeSelected, models.ScopeUnselected:
	default:
		return fmt.Errorf("unknown selection scope %q", cfg.Scope)
	}
	return nil
}

// Include reports whether the entry passes every configured predicate.
// Evaluation is total: an entry with unreadable metadata is excluded
// with a warning instead of failing the pass.
func Include(entry *models.FileEntry, cfg models.FilterConfig) (bool, string) {
	if entry.MetaErr != "" {
		return false, "unreadable metadata: " + entry.MetaErr
	}

	if len(cfg.Extensions) > 0 && !matchesExtension(entry.Ext, cfg.Extensions) {
		return false, ""
	}

	if cfg.Size != nil {
		switch cfg.Size.Op {
		case models.SizeGreater:
			if entry.Size <= cfg.Size.Threshold {
				return false, ""
			}
		case models.SizeLess:
			if entry.Size >= cfg.Size.Threshold {
				return false, ""
			}
		case models.SizeEqual:
			if entry.Size != cfg.Size.Threshold {
				return false, ""
			}
		}
	}

	if cfg.Date != nil {
		switch cfg.Date.Op {
		case models.DateBefore:
			if !entry.Mtime.Before(cfg.Date.Date) {
				return false, ""
			}
		case models.DateAfter:
			if !entry.Mtime.After(cfg.Date.Date) {
				return false, ""
			}
		case models.DateOn:
			y1, m1, d1 := entry.Mtime.Date()
			y2, m2, d2 := cfg.Date.Date.Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				return false, ""
			}
		}
	}

	switch cfg.Scope {
	case models.ScopeSelected:
		if !entry.Selected {
			return false, ""
		}
	case models.ScopeUnselected:
		if entry.Selected {
			return false, ""
		}
	}

	return true, ""
}

// matchesExtension compares case-insensitively and ignores leading dots
// on both sides.
func matchesExtension(ext string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if normalized == strings.ToLower(strings.TrimPrefix(a, ".")) {
			return true
		}
	}
	return false
}
