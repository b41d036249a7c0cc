// Package planner turns the working set plus a naming and filter
// configuration into an ordered rename plan.
//
// Build is deterministic and idempotent: the same inputs always yield
// the same plan, and planning never mutates the working set or the
// filesystem. That property is what makes live preview-as-you-type safe.
package planner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/filter"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/namer"
	"github.com/renamekit/renamekit/pkg/pathutil"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("planner")
}

// Options tunes conflict detection.
type Options struct {
	// CaseInsensitive folds case when comparing candidate names, matching
	// the behavior of the target filesystem. This is host-environment
	// state, so it is a parameter rather than a constant.
	CaseInsensitive bool
	// SkipDiskCheck disables the on-disk collision stat calls. Used by
	// callers that only need the in-plan collision view.
	SkipDiskCheck bool
}

// Plan is the computed mapping from current files to proposed names.
type Plan struct {
	Entries     []models.PreviewEntry `json:"entries"`
	Included    int                   `json:"included"`
	Conflicts   int                   `json:"conflicts"`
	FilteredOut int                   `json:"filtered_out"`
}

// Build partitions the entries through the filter, runs the name
// transformer over included entries with a running sequence index, and
// annotates every entry with a status. Excluded entries keep their
// original name in the plan for display.
//
// Every member of a colliding group is marked conflict; the planner
// never silently picks a winner.
func Build(entries []*models.FileEntry, naming models.NamingConfig, filt models.FilterConfig, opts Options) (*Plan, error) {
	if err := namer.ValidateConfig(naming); err != nil {
		return nil, err
	}
	if err := filter.ValidateConfig(filt); err != nil {
		return nil, err
	}

	plan := &Plan{Entries: make([]models.PreviewEntry, 0, len(entries))}

	// First pass: filter and transform. The sequence index advances once
	// per included file, so numbers never skip for filtered-out entries.
	index := 0
	for _, e := range entries {
		included, warn := filter.Include(e, filt)
		if !included {
			pe := models.PreviewEntry{
				Entry:   e,
				NewName: e.Name,
				NewPath: e.Path,
				Status:  models.StatusFilteredOut,
				Reason:  warn,
			}
			if warn != "" {
				pe.Status = models.StatusWarning
			}
			plan.Entries = append(plan.Entries, pe)
			plan.FilteredOut++
			continue
		}

		newName, err := namer.Transform(e.Name, index, naming)
		if err != nil {
			return nil, err
		}
		index++

		plan.Entries = append(plan.Entries, models.PreviewEntry{
			Entry:   e,
			NewName: newName,
			NewPath: filepath.Join(filepath.Dir(e.Path), newName),
			Status:  models.StatusOK,
		})
	}

	// Second pass: collision detection over candidate names. occupants
	// maps each included entry's current path to its plan position so
	// the on-disk check can tell whether the occupant will already have
	// moved away when this entry's turn comes.
	multiplicity := make(map[string]int)
	occupants := make(map[string]int)
	for i := range plan.Entries {
		pe := &plan.Entries[i]
		if pe.Status != models.StatusOK {
			continue
		}
		multiplicity[fold(pe.NewName, opts)]++
		occupants[fold(pe.Entry.Path, opts)] = i
	}

	for i := range plan.Entries {
		pe := &plan.Entries[i]
		if pe.Status != models.StatusOK {
			continue
		}

		if reason := pathutil.InvalidNameReason(pe.NewName); reason != "" {
			pe.Status = models.StatusConflict
			pe.Reason = reason
			plan.Conflicts++
			continue
		}

		if pe.Entry.Name == pe.NewName {
			pe.Status = models.StatusUnchanged
			continue
		}

		if multiplicity[fold(pe.NewName, opts)] > 1 {
			pe.Status = models.StatusConflict
			pe.Reason = "duplicate candidate name"
			plan.Conflicts++
			continue
		}

		if !opts.SkipDiskCheck && diskCollision(plan, i, occupants, opts) {
			pe.Status = models.StatusConflict
			pe.Reason = "target exists on disk"
			plan.Conflicts++
			continue
		}

		// The entry still applies; the reason tells the user the lock
		// kept auto-clean away from the extension.
		if namer.ExtensionPreserved(pe.Entry.Name, naming) {
			pe.Reason = "extension locked"
		}

		plan.Included++
	}

	log.WithFields(logrus.Fields{
		"total":       len(plan.Entries),
		"included":    plan.Included,
		"conflicts":   plan.Conflicts,
		"filteredOut": plan.FilteredOut,
	}).Debug("Plan computed")

	return plan, nil
}

// diskCollision reports whether the planned destination is still
// occupied when entry i's turn comes. Entries apply in plan order, so
// an occupant only clears the way if it is itself renamed earlier in
// the plan; a later-moving occupant would have the plan promise a
// rename the apply pass cannot deliver. Collisions raced in after
// planning surface as normal apply failures, not here.
func diskCollision(plan *Plan, i int, occupants map[string]int, opts Options) bool {
	pe := &plan.Entries[i]
	if _, err := os.Stat(pe.NewPath); err != nil {
		return false
	}

	// Case-only rename of the same file on a case-insensitive volume:
	// the stat hit is the source itself.
	if opts.CaseInsensitive && strings.EqualFold(pe.Entry.Path, pe.NewPath) {
		return false
	}

	j, inPlan := occupants[fold(pe.NewPath, opts)]
	if !inPlan || j >= i {
		return true
	}

	// Earlier entries already carry their final status here, so a
	// conflicted occupant counts as staying put.
	occ := &plan.Entries[j]
	return occ.Status != models.StatusOK || fold(occ.NewPath, opts) == fold(pe.NewPath, opts)
}

func fold(s string, opts Options) string {
	if opts.CaseInsensitive {
		return strings.ToLower(s)
	}
	return s
}
