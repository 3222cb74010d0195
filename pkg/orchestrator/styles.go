package orchestrator

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stage status glyphs convey meaning without relying on color alone.
const (
	glyphStage  = "▶"
	glyphPassed = "✓"
	glyphFailed = "✗"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	stageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	passedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	failedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func stageBanner(n, total int, name string) string {
	return stageStyle.Render(fmt.Sprintf("%s Stage %d/%d: %s", glyphStage, n, total, name))
}

func stageDone(name string) string {
	return passedStyle.Render(fmt.Sprintf("  %s %s", glyphPassed, name))
}

func stageFailed(name string, err error) string {
	return failedStyle.Render(fmt.Sprintf("  %s %s: %v", glyphFailed, name, err))
}

func runComplete(baseDir string) string {
	return dimStyle.Render("  artifacts: " + baseDir)
}
