package tui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"

	"github.com/resumekit/resumedesk/internal/api"
	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/store"
	"github.com/resumekit/resumedesk/internal/wizard"
)

func newTestTemplateStep(t *testing.T) (*TemplateStep, *wizard.Controller) {
	t.Helper()
	backend, err := api.NewClient("http://127.0.0.1:1")
	require.NoError(t, err)
	states := store.NewMemory()
	controller := wizard.NewController(states, wizard.NewHistory(), backend)
	return NewTemplateStep(backend, controller, states), controller
}

func loadTemplates(step *TemplateStep, templates ...domain.Template) {
	step.Update(TemplatesLoadedMsg{Templates: templates})
}

func TestTemplateStepLoaded(t *testing.T) {
	step, _ := newTestTemplateStep(t)
	loadTemplates(step,
		domain.Template{ID: "t1", Name: "Modern", FileType: "docx"},
		domain.Template{ID: "t2", Name: "Classic", FileType: "pdf"},
	)

	if step.loading {
		t.Error("loading should clear after templates arrive")
	}

	view := step.View()
	if !strings.Contains(view, "Modern") || !strings.Contains(view, "Classic") {
		t.Errorf("view should list templates, got %q", view)
	}
}

func TestTemplateStepFavoritesSortFirst(t *testing.T) {
	step, _ := newTestTemplateStep(t)
	loadTemplates(step,
		domain.Template{ID: "t1", Name: "Alpha"},
		domain.Template{ID: "t2", Name: "Beta"},
		domain.Template{ID: "t3", Name: "Gamma"},
	)

	// Favorite the last one; it should move to the top.
	step.selectedIdx = 2
	step.Update(tea.KeyPressMsg{Text: "f"})

	require.Equal(t, "t3", step.templates[0].ID)
	require.True(t, step.favorites["t3"])

	// Unfavorite restores name order.
	step.selectedIdx = 0
	step.Update(tea.KeyPressMsg{Text: "f"})
	require.Equal(t, "t1", step.templates[0].ID)
}

func TestTemplateStepSelectMarksWizard(t *testing.T) {
	step, controller := newTestTemplateStep(t)
	loadTemplates(step,
		domain.Template{ID: "t1", Name: "Alpha"},
		domain.Template{ID: "t2", Name: "Beta"},
	)

	step.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	step.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	require.Equal(t, "t2", controller.Snapshot().SelectedTemplateID)
}

func TestTemplateStepDeleteRequest(t *testing.T) {
	step, _ := newTestTemplateStep(t)
	loadTemplates(step, domain.Template{ID: "t1", Name: "Alpha"})

	cmd := step.Update(tea.KeyPressMsg{Text: "x"})
	require.NotNil(t, cmd)

	msg, ok := cmd().(TemplateDeleteRequestMsg)
	require.True(t, ok, "expected TemplateDeleteRequestMsg")
	require.Equal(t, "t1", msg.Template.ID)
}

func TestTemplateStepCreateFormValidation(t *testing.T) {
	step, _ := newTestTemplateStep(t)
	loadTemplates(step, domain.Template{ID: "t1", Name: "Alpha"})

	step.Update(tea.KeyPressMsg{Text: "n"})
	require.True(t, step.InputActive())

	// Empty name rejected locally, no command issued.
	cmd := step.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.Nil(t, cmd)
	require.NotEmpty(t, step.formError)

	// Esc leaves form mode.
	step.Update(tea.KeyPressMsg{Text: "esc"})
	require.False(t, step.InputActive())
}

func TestTemplateStepErrorView(t *testing.T) {
	step, _ := newTestTemplateStep(t)
	step.Update(TemplatesErrorMsg{Err: errFake("connection refused")})

	view := step.View()
	if !strings.Contains(view, "connection refused") {
		t.Errorf("error view should show the failure, got %q", view)
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }
