package tui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	lipglossv2 "charm.land/lipgloss/v2"

	"github.com/resumekit/resumedesk/internal/api"
	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/store"
	"github.com/resumekit/resumedesk/internal/tui/theme"
	"github.com/resumekit/resumedesk/internal/wizard"
)

// TemplateDeleteRequestMsg asks the app to confirm deleting a template.
type TemplateDeleteRequestMsg struct {
	Template domain.Template
}

// TemplateStep is the first wizard step: pick the formatting template.
type TemplateStep struct {
	backend    *api.Client
	controller *wizard.Controller
	states     store.Store

	templates   []domain.Template
	favorites   map[string]bool
	selectedIdx int
	selectedID  string
	loading     bool
	errMsg      string
	spinner     spinner.Model

	creating  bool
	nameInput textinput.Model
	pathInput textinput.Model
	formFocus int
	formError string

	width  int
	height int
}

// NewTemplateStep creates the template selection step.
func NewTemplateStep(backend *api.Client, controller *wizard.Controller, states store.Store) *TemplateStep {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipglossv2.NewStyle().Foreground(lipglossv2.Color(theme.Current().Primary))

	styles := inputStyles()

	nameInput := textinput.New()
	nameInput.Placeholder = "Template name..."
	nameInput.Prompt = ""
	nameInput.SetStyles(styles)
	nameInput.SetWidth(40)

	pathInput := textinput.New()
	pathInput.Placeholder = "Path to .docx or .pdf file..."
	pathInput.Prompt = ""
	pathInput.SetStyles(styles)
	pathInput.SetWidth(40)

	return &TemplateStep{
		backend:    backend,
		controller: controller,
		states:     states,
		favorites:  make(map[string]bool),
		loading:    true,
		spinner:    s,
		nameInput:  nameInput,
		pathInput:  pathInput,
		width:      60,
		height:     10,
	}
}

// Init starts the catalog fetch and favorite restore.
func (t *TemplateStep) Init() tea.Cmd {
	return tea.Batch(
		t.fetchTemplates(),
		t.loadFavorites(),
		t.spinner.Tick,
	)
}

// InputActive reports whether the step is consuming raw text input.
// The app skips single-letter shortcuts while this is true.
func (t *TemplateStep) InputActive() bool {
	return t.creating
}

// SetSelected marks the template the wizard currently has selected.
func (t *TemplateStep) SetSelected(id string) {
	t.selectedID = id
}

// SetSize updates the dimensions for the step.
func (t *TemplateStep) SetSize(width, height int) {
	t.width = width
	t.height = height
	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	t.nameInput.SetWidth(inputWidth)
	t.pathInput.SetWidth(inputWidth)
}

func (t *TemplateStep) fetchTemplates() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		templates, err := t.backend.ListTemplates(ctx)
		if err != nil {
			return TemplatesErrorMsg{Err: err}
		}
		return TemplatesLoadedMsg{Templates: templates}
	}
}

func (t *TemplateStep) loadFavorites() tea.Cmd {
	return func() tea.Msg {
		var ids []string
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if found, err := t.states.Load(ctx, store.KeyFavorites, &ids); err != nil || !found {
			return nil
		}
		return FavoritesLoadedMsg{IDs: ids}
	}
}

func (t *TemplateStep) saveFavorites() tea.Cmd {
	ids := make([]string, 0, len(t.favorites))
	for id, fav := range t.favorites {
		if fav {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := t.states.Save(ctx, store.KeyFavorites, ids); err != nil {
			return ShowToastMsg{Text: "Could not save favorites", Err: true}
		}
		return nil
	}
}

// sortTemplates orders favorites first, then by name.
func (t *TemplateStep) sortTemplates() {
	sort.SliceStable(t.templates, func(i, j int) bool {
		fi, fj := t.favorites[t.templates[i].ID], t.favorites[t.templates[j].ID]
		if fi != fj {
			return fi
		}
		return strings.ToLower(t.templates[i].Name) < strings.ToLower(t.templates[j].Name)
	})
}

// Update handles messages for the template step.
func (t *TemplateStep) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case TemplatesLoadedMsg:
		t.loading = false
		t.errMsg = ""
		t.templates = msg.Templates
		t.sortTemplates()
		if t.selectedIdx >= len(t.templates) {
			t.selectedIdx = 0
		}
		return nil

	case TemplatesErrorMsg:
		t.loading = false
		t.errMsg = "Could not load templates: " + msg.Err.Error()
		return nil

	case FavoritesLoadedMsg:
		t.favorites = make(map[string]bool, len(msg.IDs))
		for _, id := range msg.IDs {
			t.favorites[id] = true
		}
		t.sortTemplates()
		return nil

	case TemplateCreatedMsg:
		t.creating = false
		t.loading = true
		return tea.Batch(t.fetchTemplates(), t.spinner.Tick, func() tea.Msg {
			return ShowToastMsg{Text: "Template created"}
		})

	case TemplateDeletedMsg:
		delete(t.favorites, msg.ID)
		t.loading = true
		return tea.Batch(t.fetchTemplates(), t.saveFavorites(), t.spinner.Tick, func() tea.Msg {
			return ShowToastMsg{Text: "Template deleted"}
		})

	case TemplateActionErrorMsg:
		return func() tea.Msg {
			return ShowToastMsg{Text: msg.Err.Error(), Err: true}
		}

	case spinner.TickMsg:
		if !t.loading {
			return nil
		}
		var cmd tea.Cmd
		t.spinner, cmd = t.spinner.Update(msg)
		return cmd

	case tea.KeyPressMsg:
		if t.creating {
			return t.updateCreateForm(msg)
		}
		return t.updateList(msg)
	}

	return nil
}

func (t *TemplateStep) updateList(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if t.selectedIdx > 0 {
			t.selectedIdx--
		}
	case "down", "j":
		if len(t.templates) > 0 && t.selectedIdx < len(t.templates)-1 {
			t.selectedIdx++
		}
	case "enter":
		if t.selectedIdx >= 0 && t.selectedIdx < len(t.templates) {
			t.controller.SelectTemplate(t.templates[t.selectedIdx].ID)
		}
	case "f":
		if t.selectedIdx >= 0 && t.selectedIdx < len(t.templates) {
			id := t.templates[t.selectedIdx].ID
			t.favorites[id] = !t.favorites[id]
			t.sortTemplates()
			return t.saveFavorites()
		}
	case "n":
		t.creating = true
		t.formFocus = 0
		t.formError = ""
		t.nameInput.SetValue("")
		t.pathInput.SetValue("")
		t.pathInput.Blur()
		return t.nameInput.Focus()
	case "x":
		if t.selectedIdx >= 0 && t.selectedIdx < len(t.templates) {
			tpl := t.templates[t.selectedIdx]
			return func() tea.Msg {
				return TemplateDeleteRequestMsg{Template: tpl}
			}
		}
	case "r":
		t.loading = true
		return tea.Batch(t.fetchTemplates(), t.spinner.Tick)
	}
	return nil
}

func (t *TemplateStep) updateCreateForm(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		t.creating = false
		return nil
	case "tab", "shift+tab":
		t.formFocus = 1 - t.formFocus
		if t.formFocus == 0 {
			t.pathInput.Blur()
			return t.nameInput.Focus()
		}
		t.nameInput.Blur()
		return t.pathInput.Focus()
	case "enter":
		name := strings.TrimSpace(t.nameInput.Value())
		path := strings.TrimSpace(t.pathInput.Value())
		if name == "" {
			t.formError = "Name cannot be empty"
			return nil
		}
		if _, err := os.Stat(path); err != nil {
			t.formError = "File not found: " + path
			return nil
		}
		t.formError = ""
		return t.createTemplate(name, path)
	}

	var cmd tea.Cmd
	if t.formFocus == 0 {
		t.nameInput, cmd = t.nameInput.Update(msg)
	} else {
		t.pathInput, cmd = t.pathInput.Update(msg)
	}
	t.formError = ""
	return cmd
}

func (t *TemplateStep) createTemplate(name, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		id, err := t.backend.CreateTemplate(ctx, name, path)
		if err != nil {
			return TemplateActionErrorMsg{Err: err}
		}
		return TemplateCreatedMsg{ID: id}
	}
}

// DeleteTemplate returns a command that deletes the given template.
// Called by the app after the confirmation modal.
func (t *TemplateStep) DeleteTemplate(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.backend.DeleteTemplate(ctx, id); err != nil {
			return TemplateActionErrorMsg{Err: err}
		}
		return TemplateDeletedMsg{ID: id}
	}
}

// View renders the template step.
func (t *TemplateStep) View() string {
	if t.creating {
		return t.viewCreateForm()
	}

	var b strings.Builder

	if t.loading {
		b.WriteString(t.spinner.View() + " Loading templates...")
		b.WriteString("\n")
		return b.String()
	}

	if t.errMsg != "" {
		b.WriteString(styleError().Render(t.errMsg))
		b.WriteString("\n\n")
		b.WriteString(renderHintBar("r", "retry"))
		return b.String()
	}

	if len(t.templates) == 0 {
		b.WriteString(styleEmpty().Render("No templates yet. Press n to upload one."))
		b.WriteString("\n\n")
		b.WriteString(renderHintBar("n", "new template"))
		return b.String()
	}

	for i, tpl := range t.templates {
		marker := " "
		if t.favorites[tpl.ID] {
			marker = "★"
		}
		check := " "
		if tpl.ID == t.selectedID {
			check = "✓"
		}
		line := fmt.Sprintf("%s %s %s (%s)", check, marker, tpl.Name, tpl.FileType)

		if i == t.selectedIdx {
			line = styleSelected().Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHintBar(
		"↑↓/j/k", "navigate",
		"enter", "select",
		"f", "favorite",
		"n", "new",
		"x", "delete",
	))

	return b.String()
}

func (t *TemplateStep) viewCreateForm() string {
	var b strings.Builder

	label := styleLabel()
	b.WriteString(label.Render("Name"))
	b.WriteString("\n")
	b.WriteString(t.nameInput.View())
	b.WriteString("\n\n")

	b.WriteString(label.Render("File"))
	b.WriteString("\n")
	b.WriteString(t.pathInput.View())
	b.WriteString("\n")

	if t.formError != "" {
		b.WriteString(styleError().Render("✗ " + t.formError))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHintBar("tab", "next field", "enter", "upload", "esc", "cancel"))

	return b.String()
}
