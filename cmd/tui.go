package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rocolatey/rocolatey/internal/models"
)

var (
	colorCyan  = lipgloss.Color("36")  // Teal - headings
	colorWhite = lipgloss.Color("255") // Bright white - values

	styleTitle        = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
)

// upgradeSelectModel lets the user pick which outdated packages to upgrade.
// Every package starts selected.
type upgradeSelectModel struct {
	Records   []models.OutdatedRecord
	Cursor    int
	Chosen    []bool
	Confirmed bool
}

func newUpgradeSelectModel(records []models.OutdatedRecord) upgradeSelectModel {
	chosen := make([]bool, len(records))
	for i := range chosen {
		chosen[i] = true
	}
	return upgradeSelectModel{Records: records, Chosen: chosen}
}

func (m upgradeSelectModel) Init() tea.Cmd {
	return nil
}

func (m upgradeSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Records)-1 {
			m.Cursor++
		}
	case " ", "x":
		m.Chosen[m.Cursor] = !m.Chosen[m.Cursor]
	case "a":
		all := !m.allChosen()
		for i := range m.Chosen {
			m.Chosen[i] = all
		}
	case "enter":
		m.Confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m upgradeSelectModel) allChosen() bool {
	for _, c := range m.Chosen {
		if !c {
			return false
		}
	}
	return true
}

// SelectedIDs returns the chosen package ids, or nil when the selection was
// cancelled
func (m upgradeSelectModel) SelectedIDs() []string {
	if !m.Confirmed {
		return nil
	}
	var ids []string
	for i, rec := range m.Records {
		if m.Chosen[i] {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

func (m upgradeSelectModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Select Packages to Upgrade"))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("↑/↓ navigate  space toggle  a all  ⏎ upgrade  q quit"))
	b.WriteString("\n\n")

	for i, rec := range m.Records {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Chosen[i] {
			box = "[x]"
		}

		line := fmt.Sprintf("%s%s %-30s %s → %s", cursor, box, rec.ID, rec.LocalVersion, rec.RemoteVersion)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}
