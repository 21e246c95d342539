package tui

import (
	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/editor"
	"github.com/resumekit/resumedesk/internal/wizard"
)

// WizardStateMsg carries a fresh wizard snapshot after any controller
// mutation, including ones that originate off the UI goroutine (the
// debounced advance).
type WizardStateMsg struct {
	State wizard.State
}

// EditorEventMsg wraps an editor session event for rendering and toasts.
type EditorEventMsg struct {
	Event editor.Event
}

// TemplatesLoadedMsg is sent when the catalog fetch completes.
type TemplatesLoadedMsg struct {
	Templates []domain.Template
}

// TemplatesErrorMsg is sent when the catalog fetch fails.
type TemplatesErrorMsg struct {
	Err error
}

// TemplateCreatedMsg is sent after a successful template upload.
type TemplateCreatedMsg struct {
	ID string
}

// TemplateDeletedMsg is sent after a successful template delete.
type TemplateDeletedMsg struct {
	ID string
}

// TemplateActionErrorMsg is sent when a template create or delete fails.
type TemplateActionErrorMsg struct {
	Err error
}

// FavoritesLoadedMsg restores the persisted favorite template ids.
type FavoritesLoadedMsg struct {
	IDs []string
}

// FilesChangedMsg is sent when the watched upload directory changes.
type FilesChangedMsg struct{}

// FormatDoneMsg is sent when a format job finishes. On success the
// wizard has already advanced via WizardStateMsg; Err is for the toast.
type FormatDoneMsg struct {
	Err error
}

// PreviewReadyMsg carries a rendered static preview.
type PreviewReadyMsg struct {
	Filename string
	Content  string
}

// PreviewErrorMsg is sent when rendering a static preview fails.
type PreviewErrorMsg struct {
	Err error
}

// DownloadDoneMsg is sent when an artifact download finishes.
type DownloadDoneMsg struct {
	Filename string
	Path     string
	Err      error
}

// ContactLoadedMsg carries the contact record into the modal.
type ContactLoadedMsg struct {
	Info domain.ContactInfo
}

// ContactSavedMsg is sent when the contact record was stored.
type ContactSavedMsg struct {
	Err error
}
