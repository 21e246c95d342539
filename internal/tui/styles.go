package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/resumekit/resumedesk/internal/tui/theme"
)

// Styles are built per render because the active theme can flip
// between dark and light at runtime.

func styleModalContainer() lipgloss.Style {
	th := theme.Current()
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(th.Secondary)).
		Background(lipgloss.Color(th.BgBase)).
		Padding(1, 2)
}

func styleModalTitle() lipgloss.Style {
	th := theme.Current()
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(th.Primary)).
		Bold(true).
		Align(lipgloss.Center)
}

func styleLabel() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().FgMuted))
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().Error))
}

func styleEmpty() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().FgSubtle)).Italic(true)
}

func styleSelected() lipgloss.Style {
	th := theme.Current()
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(th.Primary)).
		Background(lipgloss.Color(th.BgSurface0)).
		Bold(true)
}

// renderHintBar renders a hint bar with the given key-description pairs.
// Example: renderHintBar("↑↓", "navigate", "enter", "select", "esc", "back")
// Returns: "↑↓ navigate • enter select • esc back"
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}

	th := theme.Current()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(th.FgMuted)).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(th.FgSubtle))
	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(th.BgSurface1))

	var result string
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			result += " " + sepStyle.Render("•") + " "
		}
		result += keyStyle.Render(pairs[i]) + " " + descStyle.Render(pairs[i+1])
	}

	return result
}
