package inspector

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colIndex = 6

// renderList renders the bordered record list, scrolling to keep the
// cursor row in view.
func (m Model) renderList(maxRows int) string {
	innerWidth := max(m.width-4, 20)
	colFields := max(innerWidth-colIndex-3, 10)

	title := fmt.Sprintf(" %d records ", len(m.records))
	if !m.done {
		title = fmt.Sprintf(" %d records (streaming) ", len(m.records))
	}

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(innerWidth).
		BorderForeground(lipgloss.Color("240"))

	if len(m.records) == 0 {
		return border.Render("waiting for records...")
	}

	dataRows := max(maxRows-1, 1)
	start := 0
	if len(m.records) > dataRows {
		start = max(m.cursor-dataRows/2, 0)
		if start+dataRows > len(m.records) {
			start = len(m.records) - dataRows
		}
	}
	end := min(start+dataRows, len(m.records))

	header := fmt.Sprintf("%-*s %s", colIndex, "#", "Fields")
	rows := []string{lipgloss.NewStyle().Bold(true).Render(header)}
	for i := start; i < end; i++ {
		rows = append(rows, m.renderRow(i, colFields))
	}

	content := strings.Join(rows, "\n")
	box := border.Render(content)
	return withTitle(box, title, innerWidth)
}

func (m Model) renderRow(i, colFields int) string {
	marker := "  "
	if i == m.cursor {
		marker = "▶ "
	}
	joined := truncate(strings.Join(m.records[i], ", "), colFields)
	row := fmt.Sprintf("%s%-*d %s", marker, colIndex-2, i, joined)
	if i == m.cursor {
		row = lipgloss.NewStyle().Bold(true).Render(row)
	}
	return row
}

// withTitle stamps title into the top border of a rendered box.
func withTitle(box, title string, innerWidth int) string {
	lines := strings.Split(box, "\n")
	if len(lines) == 0 {
		return box
	}
	borderFg := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle := lipgloss.NewStyle().Bold(true)
	dashes := max(innerWidth-len([]rune(title)), 0)
	lines[0] = borderFg.Render("╭") +
		titleStyle.Render(title) +
		borderFg.Render(strings.Repeat("─", dashes)+"╮")
	return strings.Join(lines, "\n")
}
