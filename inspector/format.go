package inspector

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var reSpaces = regexp.MustCompile(`\s+`)

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return s[:maxLen]
	}
	return s[:maxLen-1] + "…"
}

func friendlyError(err error, width int) string {
	return lipgloss.NewStyle().Width(width).Render("Error: " + err.Error())
}
