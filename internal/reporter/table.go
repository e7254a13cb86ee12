package reporter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rocolatey/rocolatey/internal/models"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - headings
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorDim    = lipgloss.Color("240") // Dim gray - muted text

	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

// TableReporter outputs the outdated report as aligned columns
type TableReporter struct{}

// Report generates table output for the given records
func (r *TableReporter) Report(records []models.OutdatedRecord) ([]byte, error) {
	if len(records) == 0 {
		return []byte("All packages are up to date.\n"), nil
	}

	header := []string{"PACKAGE", "CURRENT", "AVAILABLE", "PINNED"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		available := rec.RemoteVersion
		if !rec.ExistsOnRemote {
			available = "not found"
		}
		pinned := ""
		if rec.Pinned {
			pinned = "yes"
		}
		rows = append(rows, []string{rec.ID, rec.LocalVersion, available, pinned})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var sb strings.Builder
	sb.WriteString(styleHeader.Render(formatRow(header, widths)) + "\n")
	for i, row := range rows {
		line := formatRow(row, widths)
		if !records[i].ExistsOnRemote {
			line = styleWarning.Render(line)
		}
		sb.WriteString(line + "\n")
	}

	outdated, warnings := countRecords(records)
	summary := fmt.Sprintf("%d outdated", outdated)
	if warnings > 0 {
		summary += fmt.Sprintf(" · %d not found", warnings)
	}
	sb.WriteString("\n" + styleDim.Render(summary) + "\n")

	return []byte(sb.String()), nil
}

// formatRow pads cells to display width so wide runes stay aligned
func formatRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = runewidth.FillRight(cell, widths[i])
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}
