package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	lipglossv2 "charm.land/lipgloss/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/logger"
	"github.com/resumekit/resumedesk/internal/tui/theme"
	"github.com/resumekit/resumedesk/internal/wizard"
)

var resumeExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
	".md":   true,
}

// uploadItem is a candidate resume file in the upload directory.
type uploadItem struct {
	name string
	path string
	size int64
}

// UploadStep is the second wizard step: pick resumes and submit the
// format job. The upload directory is watched so newly dropped files
// appear without a manual refresh.
type UploadStep struct {
	controller *wizard.Controller
	uploadDir  string

	items       []uploadItem
	selected    map[string]bool
	selectedIdx int
	submitting  bool
	submitErr   string
	spinner     spinner.Model
	watcher     *fsnotify.Watcher

	width  int
	height int
}

// NewUploadStep creates the upload step rooted at dir.
func NewUploadStep(controller *wizard.Controller, dir string) *UploadStep {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipglossv2.NewStyle().Foreground(lipglossv2.Color(theme.Current().Primary))

	u := &UploadStep{
		controller: controller,
		uploadDir:  dir,
		selected:   make(map[string]bool),
		spinner:    s,
		width:      60,
		height:     10,
	}
	u.loadDirectory()
	return u
}

// Init starts the directory watcher.
func (u *UploadStep) Init() tea.Cmd {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("upload watcher unavailable: %v", err)
		return nil
	}
	if err := watcher.Add(u.uploadDir); err != nil {
		logger.Warn("cannot watch %s: %v", u.uploadDir, err)
		watcher.Close()
		return nil
	}
	u.watcher = watcher
	return u.waitForChange()
}

// Close stops the directory watcher.
func (u *UploadStep) Close() {
	if u.watcher != nil {
		u.watcher.Close()
		u.watcher = nil
	}
}

// waitForChange blocks on the watcher until a relevant event arrives.
func (u *UploadStep) waitForChange() tea.Cmd {
	watcher := u.watcher
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					return FilesChangedMsg{}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("upload watcher: %v", err)
			}
		}
	}
}

func (u *UploadStep) loadDirectory() {
	entries, err := os.ReadDir(u.uploadDir)
	if err != nil {
		logger.Warn("cannot read upload dir %s: %v", u.uploadDir, err)
		u.items = nil
		return
	}

	u.items = u.items[:0]
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !resumeExtensions[ext] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		u.items = append(u.items, uploadItem{
			name: entry.Name(),
			path: filepath.Join(u.uploadDir, entry.Name()),
			size: info.Size(),
		})
	}
	sort.Slice(u.items, func(i, j int) bool {
		return strings.ToLower(u.items[i].name) < strings.ToLower(u.items[j].name)
	})

	// Drop selections for files that disappeared.
	present := make(map[string]bool, len(u.items))
	for _, item := range u.items {
		present[item.path] = true
	}
	for path := range u.selected {
		if !present[path] {
			delete(u.selected, path)
		}
	}
	if u.selectedIdx >= len(u.items) {
		u.selectedIdx = 0
	}
}

// SetSize updates the dimensions for the step.
func (u *UploadStep) SetSize(width, height int) {
	u.width = width
	u.height = height
}

// SelectedFiles returns the chosen files as upload records.
func (u *UploadStep) SelectedFiles() []domain.ResumeFile {
	var files []domain.ResumeFile
	for _, item := range u.items {
		if u.selected[item.path] {
			files = append(files, domain.ResumeFile{
				ID:   uuid.NewString(),
				Name: item.name,
				Path: item.path,
				Size: item.size,
			})
		}
	}
	return files
}

// Update handles messages for the upload step.
func (u *UploadStep) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case FilesChangedMsg:
		u.loadDirectory()
		if u.watcher != nil {
			return u.waitForChange()
		}
		return nil

	case FormatDoneMsg:
		u.submitting = false
		if msg.Err != nil {
			u.submitErr = msg.Err.Error()
			return func() tea.Msg {
				return ShowToastMsg{Text: "Formatting failed", Err: true}
			}
		}
		u.submitErr = ""
		u.selected = make(map[string]bool)
		return nil

	case spinner.TickMsg:
		if !u.submitting {
			return nil
		}
		var cmd tea.Cmd
		u.spinner, cmd = u.spinner.Update(msg)
		return cmd

	case tea.KeyPressMsg:
		if u.submitting {
			return nil
		}
		switch msg.String() {
		case "up", "k":
			if u.selectedIdx > 0 {
				u.selectedIdx--
			}
		case "down", "j":
			if len(u.items) > 0 && u.selectedIdx < len(u.items)-1 {
				u.selectedIdx++
			}
		case "space", " ":
			if u.selectedIdx >= 0 && u.selectedIdx < len(u.items) {
				path := u.items[u.selectedIdx].path
				u.selected[path] = !u.selected[path]
			}
		case "a":
			all := len(u.SelectedFiles()) == len(u.items)
			for _, item := range u.items {
				u.selected[item.path] = !all
			}
		case "r":
			u.loadDirectory()
		case "enter":
			return u.submit()
		}
	}

	return nil
}

func (u *UploadStep) submit() tea.Cmd {
	files := u.SelectedFiles()
	if len(files) == 0 {
		u.submitErr = "Select at least one file"
		return nil
	}

	state := u.controller.Snapshot()
	if state.SelectedTemplateID == "" {
		u.submitErr = "Pick a template first"
		return nil
	}

	u.submitting = true
	u.submitErr = ""
	templateID := state.SelectedTemplateID

	return tea.Batch(u.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		err := u.controller.SubmitFormatJob(ctx, templateID, files)
		return FormatDoneMsg{Err: err}
	})
}

// View renders the upload step.
func (u *UploadStep) View() string {
	var b strings.Builder

	b.WriteString(styleLabel().Render(u.uploadDir))
	b.WriteString("\n\n")

	if u.submitting {
		b.WriteString(u.spinner.View() + " Formatting resumes...")
		b.WriteString("\n")
		return b.String()
	}

	if len(u.items) == 0 {
		b.WriteString(styleEmpty().Render("No resumes found. Drop .pdf, .docx, .doc, .txt or .md files here."))
		b.WriteString("\n")
	} else {
		for i, item := range u.items {
			check := "[ ]"
			if u.selected[item.path] {
				check = "[x]"
			}
			line := fmt.Sprintf("%s %s (%s)", check, item.name, formatSize(item.size))
			if i == u.selectedIdx {
				line = styleSelected().Render("▸ " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if u.submitErr != "" {
		b.WriteString("\n")
		b.WriteString(styleError().Render("✗ " + u.submitErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHintBar(
		"↑↓/j/k", "navigate",
		"space", "toggle",
		"a", "all",
		"enter", "format",
		"r", "refresh",
	))

	return b.String()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
