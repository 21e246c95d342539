// Package wizard owns the three-step flow state: template selection,
// upload and format, results. The controller is framework-free; the TUI
// observes it through a change callback and drives it from key handlers,
// and every applied mutation is mirrored best-effort to the persistence
// store and the navigation stack.
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/logger"
	"github.com/resumekit/resumedesk/internal/store"
)

// Step bounds. Step 2 requires a selected template, step 3 a non-empty
// result set.
const (
	StepTemplate = 1
	StepUpload   = 2
	StepResults  = 3
)

// DefaultAdvanceDebounce is the pause between selecting a template and
// auto-advancing to the upload step. Perceived affordance only; it has no
// correctness role.
const DefaultAdvanceDebounce = 300 * time.Millisecond

// ErrNoTemplate is returned when a format job is submitted without a
// selected template.
var ErrNoTemplate = errors.New("no template selected")

// ErrNoFiles is returned when a format job is submitted with an empty
// working set.
var ErrNoFiles = errors.New("no files queued for formatting")

// Formatter submits a format job to the backend.
type Formatter interface {
	SubmitFormat(ctx context.Context, templateID string, files []domain.ResumeFile) ([]domain.FormatResult, error)
}

// State is a snapshot of the wizard.
type State struct {
	CurrentStep        int
	SelectedTemplateID string
	Results            []domain.FormatResult
	Formatting         bool
}

// Controller owns the wizard state and its transition rules.
type Controller struct {
	mu    sync.Mutex
	state State

	store     store.Store
	history   *History
	formatter Formatter

	// AdvanceDebounce is read once at construction into debounce.
	debounce      time.Duration
	debounceTimer *time.Timer
	armedTemplate string

	onChange func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithAdvanceDebounce overrides the template auto-advance delay.
func WithAdvanceDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithOnChange registers a callback invoked with a state snapshot after
// every applied mutation. Called without the controller lock held.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// NewController creates a wizard controller at step 1.
func NewController(st store.Store, hist *History, formatter Formatter, opts ...Option) *Controller {
	c := &Controller{
		state:     State{CurrentStep: StepTemplate},
		store:     st,
		history:   hist,
		formatter: formatter,
		debounce:  DefaultAdvanceDebounce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Results = append([]domain.FormatResult(nil), c.state.Results...)
	return s
}

// Restore loads persisted wizard state. Corrupt or absent entries degrade
// to defaults, and a restored step whose precondition no longer holds
// falls back to the highest step that is still reachable. The current
// navigation entry is replaced, not pushed, so the first back gesture
// stays inside the wizard.
func (c *Controller) Restore(ctx context.Context) {
	c.mu.Lock()

	var id string
	if found, err := c.store.Load(ctx, store.KeySelectedTemplate, &id); err == nil && found {
		c.state.SelectedTemplateID = id
	}

	var results []domain.FormatResult
	if found, err := c.store.Load(ctx, store.KeyResultSet, &results); err == nil && found {
		c.state.Results = results
	}

	var step int
	if found, err := c.store.Load(ctx, store.KeyStep, &step); err == nil && found {
		for step > StepTemplate && !c.reachableLocked(step) {
			step--
		}
		if step >= StepTemplate && step <= StepResults {
			c.state.CurrentStep = step
		}
	}

	c.history.Replace(c.state.CurrentStep)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) reachableLocked(step int) bool {
	switch step {
	case StepTemplate:
		return true
	case StepUpload:
		return c.state.SelectedTemplateID != ""
	case StepResults:
		return len(c.state.Results) > 0
	default:
		return false
	}
}

// GoTo moves to step if its precondition holds. Out-of-range targets are
// clamped; an unmet precondition is a no-op and reports false.
func (c *Controller) GoTo(step int) bool {
	return c.goTo(step, true)
}

func (c *Controller) goTo(step int, record bool) bool {
	if step < StepTemplate {
		step = StepTemplate
	}
	if step > StepResults {
		step = StepResults
	}

	c.mu.Lock()
	if step == c.state.CurrentStep || !c.reachableLocked(step) {
		c.mu.Unlock()
		return false
	}

	c.state.CurrentStep = step
	c.persistLocked(store.KeyStep, step)
	if record {
		c.history.Push(step)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// NavigateBack replays the previous navigation entry without pushing a
// new one.
func (c *Controller) NavigateBack() bool {
	step, ok := c.history.Back()
	if !ok {
		return false
	}
	c.goTo(step, false)
	return true
}

// NavigateForward replays the next navigation entry without pushing a
// new one.
func (c *Controller) NavigateForward() bool {
	step, ok := c.history.Forward()
	if !ok {
		return false
	}
	c.goTo(step, false)
	return true
}

// SelectTemplate records the selection and arms the debounced advance to
// the upload step. A later selection inside the window supersedes the
// earlier one; the advance fires only if the arming template is still the
// selected one.
func (c *Controller) SelectTemplate(id string) {
	c.mu.Lock()
	c.state.SelectedTemplateID = id
	c.armedTemplate = id
	c.persistLocked(store.KeySelectedTemplate, id)

	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		stale := c.armedTemplate != id || c.state.CurrentStep != StepTemplate
		c.mu.Unlock()
		if !stale {
			c.GoTo(StepUpload)
		}
	})

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// SubmitFormatJob validates the inputs, submits the job, and on success
// replaces the result set and advances to step 3. Validation failures
// return before any network call. Backend failures leave the wizard on
// step 2 with its prior results intact.
func (c *Controller) SubmitFormatJob(ctx context.Context, templateID string, files []domain.ResumeFile) error {
	if templateID == "" {
		return ErrNoTemplate
	}
	if len(files) == 0 {
		return ErrNoFiles
	}

	c.mu.Lock()
	c.state.Formatting = true
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	results, err := c.formatter.SubmitFormat(ctx, templateID, files)

	c.mu.Lock()
	c.state.Formatting = false
	if err != nil {
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return err
	}

	c.state.Results = results
	c.state.CurrentStep = StepResults
	c.persistLocked(store.KeyResultSet, results)
	c.persistLocked(store.KeyStep, StepResults)
	c.history.Push(StepResults)
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// StartOver resets the wizard to its initial state and purges the
// persisted wizard keys. Preferences (favorites, dark mode, contact info)
// are left alone.
func (c *Controller) StartOver(ctx context.Context) {
	c.mu.Lock()
	c.state = State{CurrentStep: StepTemplate}
	c.armedTemplate = ""
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}

	for _, key := range []string{store.KeyStep, store.KeySelectedTemplate, store.KeyResultSet} {
		if err := c.store.Delete(ctx, key); err != nil {
			logger.Warn("Failed to purge %s: %v", key, err)
		}
	}
	c.history.Push(StepTemplate)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// persistLocked mirrors a value to the store. Best-effort: a store
// failure is logged and never fails the transition that triggered it.
func (c *Controller) persistLocked(key string, value any) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.store.Save(ctx, key, value); err != nil {
		logger.Warn("Failed to persist %s: %v", key, err)
	}
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
