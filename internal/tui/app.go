package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	lipglossv2 "charm.land/lipgloss/v2"
	"github.com/charmbracelet/lipgloss"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/resumekit/resumedesk/internal/api"
	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/editor"
	"github.com/resumekit/resumedesk/internal/store"
	"github.com/resumekit/resumedesk/internal/tui/theme"
	"github.com/resumekit/resumedesk/internal/wizard"
)

var stepNames = map[int]string{
	wizard.StepTemplate: "Select Template",
	wizard.StepUpload:   "Upload Resumes",
	wizard.StepResults:  "Formatted Resumes",
}

// App is the top-level model: a three step wizard with history
// navigation, a live editor session on the results step, and modals
// for contact info and confirmations.
type App struct {
	controller *wizard.Controller
	session    *editor.Manager
	backend    *api.Client
	states     store.Store

	state wizard.State

	templateStep *TemplateStep
	uploadStep   *UploadStep
	resultsStep  *ResultsStep

	toast   *Toast
	confirm *ConfirmModal
	contact *ContactModal

	darkMode bool
	width    int
	height   int
}

// NewApp assembles the application model. The controller must already
// be restored so the first render lands on the persisted step.
func NewApp(
	controller *wizard.Controller,
	session *editor.Manager,
	backend *api.Client,
	states store.Store,
	templateStep *TemplateStep,
	uploadStep *UploadStep,
	resultsStep *ResultsStep,
	darkMode bool,
) *App {
	return &App{
		controller:   controller,
		session:      session,
		backend:      backend,
		states:       states,
		state:        controller.Snapshot(),
		templateStep: templateStep,
		uploadStep:   uploadStep,
		resultsStep:  resultsStep,
		toast:        NewToast(),
		confirm:      NewConfirmModal(),
		contact:      NewContactModal(),
		darkMode:     darkMode,
	}
}

// Init starts the step components.
func (a *App) Init() tea.Cmd {
	a.syncSteps()
	return tea.Batch(
		a.templateStep.Init(),
		a.uploadStep.Init(),
	)
}

// syncSteps pushes the wizard snapshot into the step components.
func (a *App) syncSteps() {
	a.templateStep.SetSelected(a.state.SelectedTemplateID)
	a.resultsStep.SetResults(a.state.Results)
	a.resultsStep.SetActive(a.state.CurrentStep == wizard.StepResults)
}

// Update handles messages for the application.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSizes()
		return a, nil

	case WizardStateMsg:
		a.state = msg.State
		a.syncSteps()
		return a, nil

	case EditorEventMsg:
		cmd := a.resultsStep.Update(msg)
		return a, tea.Batch(cmd, a.editorEventToast(msg.Event))

	case ShowToastMsg:
		if msg.Err {
			return a, a.toast.ShowError(msg.Text)
		}
		return a, a.toast.Show(msg.Text)

	case ToastDismissMsg:
		return a, a.toast.Update(msg)

	case ContactLoadedMsg:
		a.contact.SetSize(a.width, a.height)
		return a, a.contact.Show(msg.Info)

	case ContactSubmitMsg:
		return a, a.saveContact(msg.Info)

	case ContactSavedMsg:
		if msg.Err != nil {
			return a, a.toast.ShowError("Could not save contact: " + msg.Err.Error())
		}
		return a, a.toast.Show("Contact saved")

	case TemplateDeleteRequestMsg:
		tpl := msg.Template
		a.confirm.Show(
			"Delete Template",
			fmt.Sprintf("Delete %q? This cannot be undone.", tpl.Name),
			func() tea.Cmd { return a.templateStep.DeleteTemplate(tpl.ID) },
		)
		return a, nil
	}

	return a, a.forwardToStep(msg)
}

// handleKeyPress routes keys by priority: global, modal, then step.
func (a *App) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "alt+left":
		a.controller.NavigateBack()
		return a, nil
	case "alt+right":
		a.controller.NavigateForward()
		return a, nil
	}

	if a.confirm.IsVisible() {
		return a, a.confirm.Update(msg)
	}
	if a.contact.IsVisible() {
		return a, a.contact.Update(msg)
	}

	// Single letter shortcuts are suspended while a step consumes text.
	if !a.templateStep.InputActive() {
		switch msg.String() {
		case "d":
			if a.state.CurrentStep != wizard.StepResults {
				return a, a.toggleDarkMode()
			}
		case "c":
			if a.state.CurrentStep == wizard.StepTemplate {
				return a, a.loadContact()
			}
		case "ctrl+r":
			a.confirm.Show(
				"Start Over",
				"Clear the selected template and results?",
				func() tea.Cmd { return a.startOver() },
			)
			return a, nil
		}
	}

	return a, a.forwardToStep(msg)
}

func (a *App) forwardToStep(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd

	switch a.state.CurrentStep {
	case wizard.StepTemplate:
		cmds = append(cmds, a.templateStep.Update(msg))
	case wizard.StepUpload:
		cmds = append(cmds, a.uploadStep.Update(msg))
	case wizard.StepResults:
		cmds = append(cmds, a.resultsStep.Update(msg))
	}

	// Async completions are not step-scoped; they must land on their
	// owner even when the user has navigated elsewhere.
	switch msg.(type) {
	case FilesChangedMsg, FormatDoneMsg:
		if a.state.CurrentStep != wizard.StepUpload {
			cmds = append(cmds, a.uploadStep.Update(msg))
		}
	case TemplatesLoadedMsg, TemplatesErrorMsg, FavoritesLoadedMsg,
		TemplateCreatedMsg, TemplateDeletedMsg, TemplateActionErrorMsg:
		if a.state.CurrentStep != wizard.StepTemplate {
			cmds = append(cmds, a.templateStep.Update(msg))
		}
	}

	cmds = append(cmds, a.toast.Update(msg))
	return tea.Batch(cmds...)
}

func (a *App) editorEventToast(ev editor.Event) tea.Cmd {
	switch ev.Kind {
	case editor.EventSessionFailed:
		return a.toast.ShowError("Editor session failed: " + ev.Err.Error())
	case editor.EventDownloaded:
		return nil
	default:
		return nil
	}
}

func (a *App) toggleDarkMode() tea.Cmd {
	a.darkMode = !a.darkMode
	theme.SetDark(a.darkMode)
	dark := a.darkMode
	save := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.states.Save(ctx, store.KeyDarkMode, dark); err != nil {
			return ShowToastMsg{Text: "Could not save theme", Err: true}
		}
		return nil
	}
	return save
}

// loadContact prefers the persisted record and falls back to the
// backend copy.
func (a *App) loadContact() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var info domain.ContactInfo
		if found, err := a.states.Load(ctx, store.KeyContactInfo, &info); err == nil && found {
			return ContactLoadedMsg{Info: info}
		}

		remote, err := a.backend.Contact(ctx)
		if err != nil {
			return ContactLoadedMsg{}
		}
		return ContactLoadedMsg{Info: remote}
	}
}

func (a *App) saveContact(info domain.ContactInfo) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.backend.SaveContact(ctx, info); err != nil {
			return ContactSavedMsg{Err: err}
		}
		if err := a.states.Save(ctx, store.KeyContactInfo, info); err != nil {
			return ContactSavedMsg{Err: err}
		}
		return ContactSavedMsg{}
	}
}

func (a *App) startOver() tea.Cmd {
	return func() tea.Msg {
		a.session.Release()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.controller.StartOver(ctx)
		return ShowToastMsg{Text: "Wizard reset"}
	}
}

func (a *App) propagateSizes() {
	contentWidth := a.width - 10
	contentHeight := a.height - 10
	if contentWidth < 40 {
		contentWidth = 40
	}
	if contentHeight < 10 {
		contentHeight = 10
	}
	a.templateStep.SetSize(contentWidth, contentHeight)
	a.uploadStep.SetSize(contentWidth, contentHeight)
	a.resultsStep.SetSize(contentWidth, contentHeight)
	a.contact.SetSize(a.width, a.height)
}

// View renders the application.
func (a *App) View() tea.View {
	var view tea.View
	view.AltScreen = true

	var content string
	switch {
	case a.confirm.IsVisible():
		content = a.confirm.View(a.width, a.height)
	case a.contact.IsVisible():
		content = a.contact.View(a.width, a.height)
	default:
		content = a.renderWizard()
	}

	canvas := uv.NewScreenBuffer(a.width, a.height)
	uv.NewStyledString(content).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: a.width, Y: a.height},
	})

	if a.toast.IsVisible() {
		toastContent := a.toast.View(a.width, a.height)
		if toastContent != "" {
			uv.NewStyledString(toastContent).Draw(canvas, uv.Rectangle{
				Min: uv.Position{X: 0, Y: 0},
				Max: uv.Position{X: a.width, Y: a.height},
			})
		}
	}

	view.Content = lipglossv2.NewLayer(canvas.Render())
	view.BackgroundColor = lipglossv2.Color(theme.Current().BgBase)
	return view
}

// renderWizard wraps the active step in the modal container with a
// step indicator title.
func (a *App) renderWizard() string {
	var stepContent string
	switch a.state.CurrentStep {
	case wizard.StepTemplate:
		stepContent = a.templateStep.View()
	case wizard.StepUpload:
		stepContent = a.uploadStep.View()
	case wizard.StepResults:
		stepContent = a.resultsStep.View()
	}

	var sections []string
	title := fmt.Sprintf("resumedesk - Step %d of 3: %s",
		a.state.CurrentStep, stepNames[a.state.CurrentStep])
	sections = append(sections, styleModalTitle().Render(title))
	sections = append(sections, "")
	sections = append(sections, stepContent)
	sections = append(sections, "")
	sections = append(sections, renderHintBar(
		"alt+←/→", "history",
		"ctrl+r", "start over",
		"ctrl+c", "quit",
	))

	content := strings.Join(sections, "\n")

	modalWidth := a.width - 10
	if modalWidth < 60 {
		modalWidth = 60
	}
	if modalWidth > 100 {
		modalWidth = 100
	}

	modalContent := styleModalContainer().Width(modalWidth).Render(content)

	return lipgloss.Place(a.width, a.height,
		lipgloss.Center, lipgloss.Center,
		modalContent,
	)
}

// Close releases resources owned by the app.
func (a *App) Close() {
	a.uploadStep.Close()
	a.session.Release()
}
