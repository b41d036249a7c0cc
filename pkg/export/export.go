// Package export writes a rename preview to CSV or JSON for review
// outside the tool.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/renamekit/renamekit/internal/models"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{"original_name", "new_name", "status", "reason", "size", "modified"}

// ExportCSV writes one row per preview entry, preceded by a header row.
func ExportCSV(w io.Writer, entries []models.PreviewEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, pe := range entries {
		row := []string{
			pe.Entry.Name,
			pe.NewName,
			string(pe.Status),
			pe.Reason,
			strconv.FormatInt(pe.Entry.Size, 10),
			pe.Entry.Mtime.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// jsonEntry is the export shape; it flattens the nested preview entry
// into the same fields the CSV carries.
type jsonEntry struct {
	OriginalName string               `json:"original_name"`
	NewName      string               `json:"new_name"`
	Status       models.PreviewStatus `json:"status"`
	Reason       string               `json:"reason,omitempty"`
	Size         int64                `json:"size"`
	Modified     time.Time            `json:"modified"`
}

// ExportJSON writes the preview as an indented JSON array.
func ExportJSON(w io.Writer, entries []models.PreviewEntry) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, pe := range entries {
		out = append(out, jsonEntry{
			OriginalName: pe.Entry.Name,
			NewName:      pe.NewName,
			Status:       pe.Status,
			Reason:       pe.Reason,
			Size:         pe.Entry.Size,
			Modified:     pe.Entry.Mtime,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON export: %w", err)
	}
	return nil
}
