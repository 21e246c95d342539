// Package editor owns the lifecycle of the embedded live editor: loading
// the external runtime, fetching a per-document configuration, mounting
// exactly one instance at a time, and gating downloads behind a save
// barrier. At most one live session exists; binding a new target destroys
// the previous session first.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"

	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/logger"
)

// Phase is the session state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingRuntime
	PhaseFetchingConfig
	PhaseMounting
	PhaseLive
	PhaseDestroying
)

// String returns the phase name shown in the session pane.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingRuntime:
		return "waiting for runtime"
	case PhaseFetchingConfig:
		return "fetching config"
	case PhaseMounting:
		return "mounting"
	case PhaseLive:
		return "live"
	case PhaseDestroying:
		return "destroying"
	default:
		return "unknown"
	}
}

// Session-scoped failures. Each aborts only the session it belongs to.
var (
	ErrConfigFetch = errors.New("editor config fetch failed")
	ErrMountFailed = errors.New("editor mount failed")
)

// Delay heuristics. Both are best-effort, not guarantees: SettleDelay
// lets the host container finish layout before the mount-point check, and
// SaveGrace is an assumed upper bound for the runtime's autosave. The
// runtime exposes no positive save acknowledgment, so a slow save can
// still lose edits.
const (
	DefaultSettleDelay = 150 * time.Millisecond
	DefaultSaveGrace   = 3 * time.Second
)

// Backend is the slice of the API client the session manager needs.
type Backend interface {
	EditorConfig(ctx context.Context, filename string) (json.RawMessage, error)
	Download(ctx context.Context, filename string) ([]byte, error)
}

// EventKind classifies manager events.
type EventKind int

const (
	EventPhaseChanged EventKind = iota
	EventSessionFailed
	EventDownloaded
)

// Event is delivered to the OnEvent callback after each observable
// change. Callbacks run on manager goroutines and must not block.
type Event struct {
	Kind   EventKind
	Phase  Phase
	Target domain.FormatResult
	Err    error
	Path   string // Local path for EventDownloaded
}

// Manager binds one artifact at a time to one live editor instance.
type Manager struct {
	mu       sync.Mutex
	phase    Phase
	target   domain.FormatResult
	instance Instance
	gen      uint64

	runtime Runtime
	backend Backend
	host    MountHost
	mountID string

	// Heuristic delays, overridable for tests.
	SettleDelay time.Duration
	SaveGrace   time.Duration

	// DownloadDir receives fetched artifacts.
	DownloadDir string

	onEvent func(Event)
}

// NewManager creates an idle session manager. mountID names the single
// mount point the host owns for the editor pane.
func NewManager(runtime Runtime, backend Backend, host MountHost, mountID, downloadDir string, onEvent func(Event)) *Manager {
	return &Manager{
		phase:       PhaseIdle,
		runtime:     runtime,
		backend:     backend,
		host:        host,
		mountID:     mountID,
		SettleDelay: DefaultSettleDelay,
		SaveGrace:   DefaultSaveGrace,
		DownloadDir: downloadDir,
		onEvent:     onEvent,
	}
}

// SessionView is a renderable snapshot of the session.
type SessionView struct {
	Phase  Phase
	Target domain.FormatResult
}

// Snapshot returns the current phase and target.
func (m *Manager) Snapshot() SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return SessionView{Phase: m.phase, Target: m.target}
}

// Bind scopes the session to target. Any existing session is destroyed
// first, so teardown always precedes the new mount. Then the async chain
// runs: wait for the runtime, fetch the config, settle, mount. A later
// Bind supersedes the chain; superseded continuations abandon silently.
func (m *Manager) Bind(ctx context.Context, target domain.FormatResult) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	if m.phase != PhaseIdle {
		m.destroyLocked()
	}
	m.target = target
	m.phase = PhaseAwaitingRuntime
	m.mu.Unlock()

	m.emit(Event{Kind: EventPhaseChanged, Phase: PhaseAwaitingRuntime, Target: target})
	go m.open(ctx, gen, target)
}

// Release destroys the current session, if any, and returns to idle.
// Safe to call at any phase, any number of times.
func (m *Manager) Release() {
	m.mu.Lock()
	m.gen++
	hadSession := m.phase != PhaseIdle
	if hadSession {
		m.destroyLocked()
	}
	target := m.target
	m.target = domain.FormatResult{}
	m.mu.Unlock()

	if hadSession {
		m.emit(Event{Kind: EventPhaseChanged, Phase: PhaseIdle, Target: target})
	}
}

// releaseGen releases the session only if gen is still current, so a
// stale caller cannot tear down a session it never waited on.
func (m *Manager) releaseGen(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	hadSession := m.phase != PhaseIdle
	if hadSession {
		m.destroyLocked()
	}
	target := m.target
	m.target = domain.FormatResult{}
	m.mu.Unlock()

	if hadSession {
		m.emit(Event{Kind: EventPhaseChanged, Phase: PhaseIdle, Target: target})
	}
}

// destroyLocked tears down the live instance. Teardown errors are
// swallowed: the instance may already be gone, and a failed teardown must
// not leak into the next session.
func (m *Manager) destroyLocked() {
	m.phase = PhaseDestroying
	if m.instance != nil {
		if err := m.instance.Destroy(); err != nil {
			logger.Warn("Editor teardown reported: %v", err)
		}
		m.instance = nil
	}
	m.phase = PhaseIdle
}

// open runs the bind chain for one generation. Every resume point checks
// the generation so a chain superseded mid-flight never touches the new
// session's state.
func (m *Manager) open(ctx context.Context, gen uint64, target domain.FormatResult) {
	if err := m.runtime.WaitReady(ctx); err != nil {
		if errors.Is(err, ErrRuntimeTimeout) {
			m.fail(gen, target, fmt.Errorf("%w for %s", ErrRuntimeTimeout, target.Filename))
		} else {
			m.fail(gen, target, err)
		}
		return
	}
	if !m.advance(gen, PhaseFetchingConfig, target) {
		return
	}

	cfg, err := m.backend.EditorConfig(ctx, target.Filename)
	if err != nil {
		m.fail(gen, target, fmt.Errorf("%w: %v", ErrConfigFetch, err))
		return
	}
	if !m.advance(gen, PhaseMounting, target) {
		return
	}

	// Let the host finish layout before checking the mount point.
	select {
	case <-ctx.Done():
		m.fail(gen, target, ctx.Err())
		return
	case <-time.After(m.SettleDelay):
	}

	if m.stale(gen) {
		return
	}
	if !m.host.Exists(m.mountID) {
		m.fail(gen, target, fmt.Errorf("%w: mount point %q is gone", ErrMountFailed, m.mountID))
		return
	}

	inst, err := m.runtime.Mount(ctx, m.mountID, cfg)
	if err != nil {
		m.fail(gen, target, fmt.Errorf("%w: %v", ErrMountFailed, err))
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		// Superseded while mounting; this instance must not survive.
		m.mu.Unlock()
		if err := inst.Destroy(); err != nil {
			logger.Warn("Teardown of superseded mount reported: %v", err)
		}
		return
	}
	m.instance = inst
	m.phase = PhaseLive
	m.mu.Unlock()

	m.emit(Event{Kind: EventPhaseChanged, Phase: PhaseLive, Target: target})
}

// advance moves to next if gen is still current.
func (m *Manager) advance(gen uint64, next Phase, target domain.FormatResult) bool {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return false
	}
	m.phase = next
	m.mu.Unlock()

	m.emit(Event{Kind: EventPhaseChanged, Phase: next, Target: target})
	return true
}

func (m *Manager) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen != m.gen
}

// fail lands the session back in idle and reports, unless the chain was
// superseded; a stale failure is nobody's news.
func (m *Manager) fail(gen uint64, target domain.FormatResult, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseIdle
	m.instance = nil
	m.mu.Unlock()

	logger.Error("Editor session for %s failed: %v", target.Filename, err)
	m.emit(Event{Kind: EventSessionFailed, Phase: PhaseIdle, Target: target, Err: err})
}

// Download fetches target's bytes to DownloadDir and returns the local
// path. If target is the live session, the save barrier runs first: wait
// SaveGrace for the runtime's autosave, then tear the session down before
// fetching. With no live session for target the barrier is skipped. The
// barrier is a timed assumption, not an acknowledgment; callers must not
// treat it as a guarantee that edits were persisted.
func (m *Manager) Download(ctx context.Context, target domain.FormatResult) (string, error) {
	m.mu.Lock()
	live := m.phase == PhaseLive && m.target.Filename == target.Filename
	gen := m.gen
	m.mu.Unlock()

	if live {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.SaveGrace):
		}
		// Only tear down the session the barrier waited on. A rebind
		// during the grace window owns a newer generation and keeps its
		// session.
		m.releaseGen(gen)
	}

	data, err := m.backend.Download(ctx, target.Filename)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(m.DownloadDir, 0755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	path := filepath.Join(m.DownloadDir, localName(target))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	m.emit(Event{Kind: EventDownloaded, Target: target, Path: path})
	return path, nil
}

// localName derives a filesystem-friendly name from the display name,
// keeping the server filename's extension.
func localName(target domain.FormatResult) string {
	ext := filepath.Ext(target.Filename)
	base := target.DisplayName
	if base == "" {
		base = strings.TrimSuffix(target.Filename, ext)
	}
	return slug.Make(base) + ext
}

func (m *Manager) emit(ev Event) {
	if m.onEvent != nil {
		m.onEvent(ev)
	}
}
