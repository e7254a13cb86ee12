package reporter

import (
	"fmt"
	"strings"

	"github.com/rocolatey/rocolatey/internal/models"
)

// TextReporter outputs the choco-compatible outdated report
type TextReporter struct {
	// Limit prints only the "id|local|remote|pinned" lines
	Limit bool
}

// Report generates text output for the given records
func (r *TextReporter) Report(records []models.OutdatedRecord) ([]byte, error) {
	var sb strings.Builder
	var warnings strings.Builder

	if !r.Limit {
		sb.WriteString("Outdated Packages\n")
		sb.WriteString(" Output is package name | current version | available version | pinned?\n\n")
	}

	for _, rec := range records {
		fmt.Fprintf(&sb, "%s|%s|%s|%t\n", rec.ID, rec.LocalVersion, rec.RemoteVersion, rec.Pinned)
		if !rec.ExistsOnRemote {
			fmt.Fprintf(&warnings, " - %s\n", rec.ID)
		}
	}

	if !r.Limit {
		outdated, warned := countRecords(records)
		fmt.Fprintf(&sb, "\nRocolatey has determined %d package(s) are outdated.\n", outdated)
		if warned > 0 {
			fmt.Fprintf(&sb, " %d package(s) had warnings.\n", warned)
			sb.WriteString("Warnings:\n")
			sb.WriteString(warnings.String())
		}
	}

	return []byte(sb.String()), nil
}

// ListReporter outputs the outdated ids on one line, ready to pass to
// "choco upgrade"
type ListReporter struct{}

// Report generates list output for the given records
func (r *ListReporter) Report(records []models.OutdatedRecord) ([]byte, error) {
	var ids []string
	for _, rec := range records {
		if rec.Outdated {
			ids = append(ids, rec.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(ids, " ") + "\n"), nil
}
