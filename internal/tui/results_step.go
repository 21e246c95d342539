package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	xeditor "github.com/charmbracelet/x/editor"

	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/editor"
	"github.com/resumekit/resumedesk/internal/preview"
)

// EditorMountID names the single mount point the results pane owns.
const EditorMountID = "editor-pane"

// ResultsStep is the third wizard step: browse formatted resumes,
// open a live editor session, preview, and download.
//
// It implements editor.MountHost: the mount point exists only while
// the results step is on screen.
type ResultsStep struct {
	session   *editor.Manager
	previewer *preview.Renderer

	mu     sync.Mutex
	active bool

	results     []domain.FormatResult
	selectedIdx int
	sessionView editor.SessionView
	downloads   map[string]domain.DownloadRecord

	previewFor string
	viewport   viewport.Model
	hasPreview bool

	width  int
	height int
}

// NewResultsStep creates the results step. The session manager is
// attached afterwards via SetSession because the manager needs the step
// as its mount host.
func NewResultsStep(previewer *preview.Renderer) *ResultsStep {
	vp := viewport.New()
	return &ResultsStep{
		previewer: previewer,
		downloads: make(map[string]domain.DownloadRecord),
		viewport:  vp,
		width:     60,
		height:    10,
	}
}

// SetSession attaches the editor session manager.
func (r *ResultsStep) SetSession(session *editor.Manager) {
	r.session = session
}

// Exists reports whether the editor mount point is on screen.
func (r *ResultsStep) Exists(mountID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return mountID == EditorMountID && r.active
}

// SetActive marks the step as the one currently rendered. Leaving the
// step releases any live editor session.
func (r *ResultsStep) SetActive(active bool) {
	r.mu.Lock()
	was := r.active
	r.active = active
	r.mu.Unlock()

	if was && !active && r.session != nil {
		r.session.Release()
	}
}

// SetResults replaces the displayed result set.
func (r *ResultsStep) SetResults(results []domain.FormatResult) {
	r.results = results
	if r.selectedIdx >= len(r.results) {
		r.selectedIdx = 0
	}
}

// SetSize updates the dimensions for the step.
func (r *ResultsStep) SetSize(width, height int) {
	r.width = width
	r.height = height

	paneHeight := height - len(r.results) - 6
	if paneHeight < 4 {
		paneHeight = 4
	}
	r.viewport.SetWidth(width)
	r.viewport.SetHeight(paneHeight)
}

// Update handles messages for the results step.
func (r *ResultsStep) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case EditorEventMsg:
		r.sessionView = r.session.Snapshot()
		return nil

	case PreviewReadyMsg:
		r.previewFor = msg.Filename
		r.hasPreview = true
		r.viewport.SetContent(msg.Content)
		r.viewport.GotoTop()
		return nil

	case PreviewErrorMsg:
		return func() tea.Msg {
			return ShowToastMsg{Text: "Preview failed: " + msg.Err.Error(), Err: true}
		}

	case DownloadDoneMsg:
		if msg.Err != nil {
			return func() tea.Msg {
				return ShowToastMsg{Text: "Download failed: " + msg.Err.Error(), Err: true}
			}
		}
		r.downloads[msg.Filename] = domain.DownloadRecord{
			Filename: msg.Filename,
			Path:     msg.Path,
			SavedAt:  time.Now(),
		}
		return func() tea.Msg {
			return ShowToastMsg{Text: "Saved " + msg.Path}
		}

	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}

	var cmd tea.Cmd
	r.viewport, cmd = r.viewport.Update(msg)
	return cmd
}

func (r *ResultsStep) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if r.selectedIdx > 0 {
			r.selectedIdx--
		}
	case "down", "j":
		if len(r.results) > 0 && r.selectedIdx < len(r.results)-1 {
			r.selectedIdx++
		}
	case "enter":
		if target, ok := r.current(); ok {
			r.session.Bind(context.Background(), target)
		}
	case "x":
		r.session.Release()
	case "s":
		if target, ok := r.current(); ok {
			return r.renderPreview(target)
		}
	case "ctrl+d":
		if target, ok := r.current(); ok {
			return r.download(target)
		}
	case "o":
		if target, ok := r.current(); ok {
			return r.openInEditor(target)
		}
	default:
		var cmd tea.Cmd
		r.viewport, cmd = r.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (r *ResultsStep) current() (domain.FormatResult, bool) {
	if r.selectedIdx < 0 || r.selectedIdx >= len(r.results) {
		return domain.FormatResult{}, false
	}
	return r.results[r.selectedIdx], true
}

func (r *ResultsStep) renderPreview(target domain.FormatResult) tea.Cmd {
	width := r.viewport.Width()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		content, err := r.previewer.Render(ctx, target, width)
		if err != nil {
			return PreviewErrorMsg{Err: err}
		}
		return PreviewReadyMsg{Filename: target.Filename, Content: content}
	}
}

func (r *ResultsStep) download(target domain.FormatResult) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		path, err := r.session.Download(ctx, target)
		return DownloadDoneMsg{Filename: target.Filename, Path: path, Err: err}
	}
}

// openInEditor opens the locally downloaded copy in $EDITOR. The file
// has to be downloaded first so edits land on the formatted artifact.
func (r *ResultsStep) openInEditor(target domain.FormatResult) tea.Cmd {
	rec, ok := r.downloads[target.Filename]
	if !ok {
		return func() tea.Msg {
			return ShowToastMsg{Text: "Download first (ctrl+d)", Err: true}
		}
	}

	cmd, err := xeditor.Command("resumedesk", rec.Path)
	if err != nil {
		return func() tea.Msg {
			return ShowToastMsg{Text: "No $EDITOR configured", Err: true}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		if err != nil {
			return ShowToastMsg{Text: "Editor failed: " + err.Error(), Err: true}
		}
		return nil
	})
}

// View renders the results step.
func (r *ResultsStep) View() string {
	var b strings.Builder

	if len(r.results) == 0 {
		b.WriteString(styleEmpty().Render("No formatted resumes yet."))
		b.WriteString("\n")
		return b.String()
	}

	view := r.sessionView
	if r.session != nil {
		view = r.session.Snapshot()
	}

	for i, res := range r.results {
		name := res.DisplayName
		if name == "" {
			name = res.Original
		}
		marker := " "
		if view.Phase != editor.PhaseIdle && view.Target.Filename == res.Filename {
			marker = "●"
		}
		line := fmt.Sprintf("%s %s", marker, name)
		if rec, ok := r.downloads[res.Filename]; ok {
			line += styleLabel().Render("  ↓ " + rec.Path)
		}
		if i == r.selectedIdx {
			line = styleSelected().Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleLabel().Render("Session: " + view.Phase.String()))
	b.WriteString("\n")

	if r.hasPreview {
		b.WriteString(styleLabel().Render("Preview: " + r.previewFor))
		b.WriteString("\n")
		b.WriteString(r.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHintBar(
		"↑↓/j/k", "navigate",
		"enter", "edit live",
		"x", "close session",
		"s", "preview",
		"ctrl+d", "download",
		"o", "open in $EDITOR",
	))

	return b.String()
}
