package tui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	lipglossv2 "charm.land/lipgloss/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/tui/theme"
)

// ContactSubmitMsg is sent when the contact modal is submitted with
// valid values. The app performs the actual save.
type ContactSubmitMsg struct {
	Info domain.ContactInfo
}

// ContactModal edits the contact record stamped onto formatted resumes.
type ContactModal struct {
	nameInput  textinput.Model
	phoneInput textinput.Model
	emailInput textinput.Model
	focusIndex int
	emailError string
	visible    bool
	width      int
	height     int
}

// NewContactModal creates a hidden contact modal.
func NewContactModal() *ContactModal {
	styles := inputStyles()

	nameInput := textinput.New()
	nameInput.Placeholder = "Full name..."
	nameInput.Prompt = ""
	nameInput.SetStyles(styles)
	nameInput.SetWidth(40)

	phoneInput := textinput.New()
	phoneInput.Placeholder = "Phone..."
	phoneInput.Prompt = ""
	phoneInput.SetStyles(styles)
	phoneInput.SetWidth(40)

	emailInput := textinput.New()
	emailInput.Placeholder = "Email..."
	emailInput.Prompt = ""
	emailInput.SetStyles(styles)
	emailInput.SetWidth(40)

	return &ContactModal{
		nameInput:  nameInput,
		phoneInput: phoneInput,
		emailInput: emailInput,
	}
}

func inputStyles() textinput.Styles {
	th := theme.Current()
	return textinput.Styles{
		Focused: textinput.StyleState{
			Text:        lipglossv2.NewStyle().Foreground(lipglossv2.Color(th.FgBase)),
			Placeholder: lipglossv2.NewStyle().Foreground(lipglossv2.Color(th.FgMuted)),
			Prompt:      lipglossv2.NewStyle().Foreground(lipglossv2.Color(th.Secondary)),
		},
		Blurred: textinput.StyleState{
			Text:        lipglossv2.NewStyle().Foreground(lipglossv2.Color(th.FgMuted)),
			Placeholder: lipglossv2.NewStyle().Foreground(lipglossv2.Color(th.FgMuted)),
			Prompt:      lipglossv2.NewStyle().Foreground(lipglossv2.Color(th.FgSubtle)),
		},
		Cursor: textinput.CursorStyle{
			Color: lipglossv2.Color(th.Primary),
			Shape: tea.CursorBar,
			Blink: true,
		},
	}
}

// Show displays the modal prefilled with the given contact record.
func (c *ContactModal) Show(info domain.ContactInfo) tea.Cmd {
	c.nameInput.SetValue(info.Name)
	c.phoneInput.SetValue(info.Phone)
	c.emailInput.SetValue(info.Email)
	c.emailError = ""
	c.visible = true
	c.focusIndex = 0
	c.phoneInput.Blur()
	c.emailInput.Blur()
	return c.nameInput.Focus()
}

// Hide dismisses the modal without saving.
func (c *ContactModal) Hide() {
	c.visible = false
	c.nameInput.Blur()
	c.phoneInput.Blur()
	c.emailInput.Blur()
}

// IsVisible returns whether the modal is currently shown.
func (c *ContactModal) IsVisible() bool {
	return c.visible
}

// SetSize updates the dimensions for the modal.
func (c *ContactModal) SetSize(width, height int) {
	c.width = width
	c.height = height
	inputWidth := 40
	if width-20 < inputWidth {
		inputWidth = width - 20
	}
	if inputWidth < 20 {
		inputWidth = 20
	}
	c.nameInput.SetWidth(inputWidth)
	c.phoneInput.SetWidth(inputWidth)
	c.emailInput.SetWidth(inputWidth)
}

// Update handles messages while the modal is visible.
func (c *ContactModal) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case "esc":
			c.Hide()
			return nil
		case "tab":
			c.focusIndex = (c.focusIndex + 1) % 3
			return c.updateFocus()
		case "shift+tab":
			c.focusIndex = (c.focusIndex + 2) % 3
			return c.updateFocus()
		case "enter":
			if !c.validate() {
				return nil
			}
			info := c.Values()
			c.Hide()
			return func() tea.Msg {
				return ContactSubmitMsg{Info: info}
			}
		}
	}

	var cmd tea.Cmd
	switch c.focusIndex {
	case 0:
		c.nameInput, cmd = c.nameInput.Update(msg)
	case 1:
		c.phoneInput, cmd = c.phoneInput.Update(msg)
	case 2:
		c.emailInput, cmd = c.emailInput.Update(msg)
		if _, ok := msg.(tea.KeyPressMsg); ok {
			c.emailError = ""
		}
	}
	return cmd
}

func (c *ContactModal) updateFocus() tea.Cmd {
	c.nameInput.Blur()
	c.phoneInput.Blur()
	c.emailInput.Blur()
	switch c.focusIndex {
	case 0:
		return c.nameInput.Focus()
	case 1:
		return c.phoneInput.Focus()
	default:
		return c.emailInput.Focus()
	}
}

func (c *ContactModal) validate() bool {
	email := strings.TrimSpace(c.emailInput.Value())
	if email != "" && !strings.Contains(email, "@") {
		c.emailError = "Email must contain @"
		return false
	}
	return true
}

// Values returns the current trimmed input values.
func (c *ContactModal) Values() domain.ContactInfo {
	return domain.ContactInfo{
		Name:  strings.TrimSpace(c.nameInput.Value()),
		Phone: strings.TrimSpace(c.phoneInput.Value()),
		Email: strings.TrimSpace(c.emailInput.Value()),
	}
}

// View renders the modal centered on the screen.
func (c *ContactModal) View(width, height int) string {
	if !c.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleModalTitle().Render("Contact Info"))
	b.WriteString("\n\n")

	label := styleLabel()
	b.WriteString(label.Render("Name"))
	b.WriteString("\n")
	b.WriteString(c.nameInput.View())
	b.WriteString("\n\n")

	b.WriteString(label.Render("Phone"))
	b.WriteString("\n")
	b.WriteString(c.phoneInput.View())
	b.WriteString("\n\n")

	b.WriteString(label.Render("Email"))
	b.WriteString("\n")
	b.WriteString(c.emailInput.View())
	b.WriteString("\n")

	if c.emailError != "" {
		b.WriteString(styleError().Render("✗ " + c.emailError))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHintBar("tab", "next field", "enter", "save", "esc", "cancel"))

	modalWidth := 56
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	content := styleModalContainer().Width(modalWidth).Render(b.String())

	return lipgloss.Place(width, height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}
