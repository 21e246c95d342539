package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmModal asks the user a yes/no question before a destructive
// action. The onConfirm command runs only on an explicit yes.
type ConfirmModal struct {
	title     string
	message   string
	onConfirm func() tea.Cmd
	visible   bool
}

// NewConfirmModal creates a hidden confirmation modal.
func NewConfirmModal() *ConfirmModal {
	return &ConfirmModal{}
}

// Show displays the modal with the given prompt and pending action.
func (c *ConfirmModal) Show(title, message string, onConfirm func() tea.Cmd) {
	c.title = title
	c.message = message
	c.onConfirm = onConfirm
	c.visible = true
}

// Hide dismisses the modal without running the pending action.
func (c *ConfirmModal) Hide() {
	c.visible = false
	c.onConfirm = nil
}

// IsVisible returns whether the modal is currently shown.
func (c *ConfirmModal) IsVisible() bool {
	return c.visible
}

// Update handles key presses while the modal is visible.
func (c *ConfirmModal) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return nil
	}

	switch keyMsg.String() {
	case "y", "Y", "enter":
		action := c.onConfirm
		c.Hide()
		if action != nil {
			return action()
		}
	case "n", "N", "esc":
		c.Hide()
	}
	return nil
}

// View renders the modal centered on the screen.
func (c *ConfirmModal) View(width, height int) string {
	if !c.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleModalTitle().Render(c.title))
	b.WriteString("\n\n")
	b.WriteString(c.message)
	b.WriteString("\n\n")
	b.WriteString(renderHintBar("y", "confirm", "n/esc", "cancel"))

	modalWidth := 50
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	content := styleModalContainer().Width(modalWidth).Render(b.String())

	return lipgloss.Place(width, height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}
