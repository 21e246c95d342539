package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumekit/resumedesk/internal/domain"
)

// callLog records the interleaving of mounts and teardowns.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeInstance struct {
	name string
	log  *callLog

	mu        sync.Mutex
	destroys  int
	destroyed bool
}

func (i *fakeInstance) Destroy() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.destroys++
	i.log.add("destroy:" + i.name)
	if i.destroyed {
		// Already gone. Report it, the manager must swallow this.
		return errors.New("instance already destroyed")
	}
	i.destroyed = true
	return nil
}

type fakeRuntime struct {
	log      *callLog
	readyErr error

	mu        sync.Mutex
	instances []*fakeInstance
}

func (r *fakeRuntime) WaitReady(_ context.Context) error {
	return r.readyErr
}

func (r *fakeRuntime) Mount(_ context.Context, _ string, cfg json.RawMessage) (Instance, error) {
	var payload struct {
		Doc string `json:"doc"`
	}
	_ = json.Unmarshal(cfg, &payload)

	inst := &fakeInstance{name: payload.Doc, log: r.log}
	r.mu.Lock()
	r.instances = append(r.instances, inst)
	r.mu.Unlock()

	r.log.add("mount:" + payload.Doc)
	return inst, nil
}

type fakeBackend struct {
	mu        sync.Mutex
	configErr error
	gate      chan struct{} // when set, EditorConfig blocks until closed
	downloads int
	payload   []byte
}

func (b *fakeBackend) EditorConfig(ctx context.Context, filename string) (json.RawMessage, error) {
	b.mu.Lock()
	gate := b.gate
	err := b.configErr
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(fmt.Sprintf(`{"doc":%q}`, filename)), nil
}

func (b *fakeBackend) Download(_ context.Context, _ string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.downloads++
	if b.payload == nil {
		return []byte("bytes"), nil
	}
	return b.payload, nil
}

type fakeHost struct {
	mu     sync.Mutex
	exists bool
}

func (h *fakeHost) Exists(string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exists
}

type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *eventSink) failures() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Kind == EventSessionFailed {
			out = append(out, ev)
		}
	}
	return out
}

func newTestManager(t *testing.T, rt Runtime, be Backend, host MountHost, sink *eventSink) *Manager {
	t.Helper()
	m := NewManager(rt, be, host, "editor-pane", t.TempDir(), sink.record)
	m.SettleDelay = time.Millisecond
	m.SaveGrace = 10 * time.Millisecond
	return m
}

func waitForPhase(t *testing.T, m *Manager, phase Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Snapshot().Phase == phase {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %v, at %v", phase, m.Snapshot().Phase)
}

func TestBind_ReachesLive(t *testing.T) {
	log := &callLog{}
	rt := &fakeRuntime{log: log}
	sink := &eventSink{}
	m := newTestManager(t, rt, &fakeBackend{}, &fakeHost{exists: true}, sink)

	m.Bind(context.Background(), domain.FormatResult{Filename: "r1.docx"})
	waitForPhase(t, m, PhaseLive)

	assert.Equal(t, []string{"mount:r1.docx"}, log.snapshot())
	assert.Equal(t, "r1.docx", m.Snapshot().Target.Filename)
}

// For every pair of consecutive selections, the previous instance is torn
// down before the next mount happens.
func TestRebind_TeardownBeforeMount(t *testing.T) {
	log := &callLog{}
	rt := &fakeRuntime{log: log}
	sink := &eventSink{}
	m := newTestManager(t, rt, &fakeBackend{}, &fakeHost{exists: true}, sink)

	targets := []string{"r1.docx", "r2.docx", "r3.docx"}
	for _, name := range targets {
		m.Bind(context.Background(), domain.FormatResult{Filename: name})
		waitForPhase(t, m, PhaseLive)
	}

	want := []string{
		"mount:r1.docx",
		"destroy:r1.docx",
		"mount:r2.docx",
		"destroy:r2.docx",
		"mount:r3.docx",
	}
	assert.Equal(t, want, log.snapshot())
}

func TestRelease_IdempotentTeardown(t *testing.T) {
	log := &callLog{}
	rt := &fakeRuntime{log: log}
	sink := &eventSink{}
	m := newTestManager(t, rt, &fakeBackend{}, &fakeHost{exists: true}, sink)

	m.Bind(context.Background(), domain.FormatResult{Filename: "r1.docx"})
	waitForPhase(t, m, PhaseLive)

	// The second destroy errors inside the fake; neither call may panic
	// or surface the error.
	m.Release()
	m.Release()

	require.Len(t, rt.instances, 1)
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)
}

func TestBind_RuntimeTimeout(t *testing.T) {
	rt := &fakeRuntime{log: &callLog{}, readyErr: ErrRuntimeTimeout}
	sink := &eventSink{}
	m := newTestManager(t, rt, &fakeBackend{}, &fakeHost{exists: true}, sink)

	m.Bind(context.Background(), domain.FormatResult{Filename: "r1.docx"})
	waitForPhase(t, m, PhaseIdle)

	failures := sink.failures()
	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures[0].Err, ErrRuntimeTimeout))
	assert.Empty(t, rt.instances, "no instance may be mounted after a runtime timeout")
}

func TestBind_ConfigFetchFailed(t *testing.T) {
	rt := &fakeRuntime{log: &callLog{}}
	be := &fakeBackend{configErr: errors.New("status 502")}
	sink := &eventSink{}
	m := newTestManager(t, rt, be, &fakeHost{exists: true}, sink)

	m.Bind(context.Background(), domain.FormatResult{Filename: "r1.docx"})
	waitForPhase(t, m, PhaseIdle)

	failures := sink.failures()
	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures[0].Err, ErrConfigFetch))
}

func TestBind_MountPointGone(t *testing.T) {
	rt := &fakeRuntime{log: &callLog{}}
	sink := &eventSink{}
	m := newTestManager(t, rt, &fakeBackend{}, &fakeHost{exists: false}, sink)

	m.Bind(context.Background(), domain.FormatResult{Filename: "r1.docx"})
	waitForPhase(t, m, PhaseIdle)

	failures := sink.failures()
	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures[0].Err, ErrMountFailed))
	assert.Empty(t, rt.instances)
}

// A config fetch that resolves after the user re-selected must not mount
// against the stale target.
func TestBind_SupersededChainNeverMounts(t *testing.T) {
	log := &callLog{}
	rt := &fakeRuntime{log: log}
	gate := make(chan struct{})
	be := &fakeBackend{gate: gate}
	sink := &eventSink{}
	m := newTestManager(t, rt, be, &fakeHost{exists: true}, sink)

	m.Bind(context.Background(), domain.FormatResult{Filename: "stale.docx"})
	waitForPhase(t, m, PhaseFetchingConfig)

	// Re-select while the first chain is blocked on its config fetch.
	be.mu.Lock()
	be.gate = nil
	be.mu.Unlock()
	m.Bind(context.Background(), domain.FormatResult{Filename: "fresh.docx"})
	waitForPhase(t, m, PhaseLive)

	// Unblock the stale chain; it must abandon silently.
	close(gate)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"mount:fresh.docx"}, log.snapshot())
	assert.Equal(t, "fresh.docx", m.Snapshot().Target.Filename)
	assert.Empty(t, sink.failures(), "a superseded chain is not an error")
}

func TestDownload_SaveBarrier(t *testing.T) {
	rt := &fakeRuntime{log: &callLog{}}
	be := &fakeBackend{payload: []byte("formatted")}
	sink := &eventSink{}
	m := newTestManager(t, rt, be, &fakeHost{exists: true}, sink)
	m.SaveGrace = 60 * time.Millisecond

	target := domain.FormatResult{Filename: "r1.docx", DisplayName: "Resume One"}
	m.Bind(context.Background(), target)
	waitForPhase(t, m, PhaseLive)

	start := time.Now()
	path, err := m.Download(context.Background(), target)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond,
		"download of a live target must wait out the save grace period")
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase, "save barrier completion tears the session down")
	assert.Contains(t, path, "resume-one.docx")
}

// Re-selecting during the grace window hands the session to a newer
// generation; the finished barrier must not tear that session down.
func TestDownload_RebindDuringGraceKeepsNewSession(t *testing.T) {
	rt := &fakeRuntime{log: &callLog{}}
	be := &fakeBackend{}
	sink := &eventSink{}
	m := newTestManager(t, rt, be, &fakeHost{exists: true}, sink)
	m.SaveGrace = 100 * time.Millisecond

	first := domain.FormatResult{Filename: "a.docx"}
	m.Bind(context.Background(), first)
	waitForPhase(t, m, PhaseLive)

	done := make(chan error, 1)
	go func() {
		_, err := m.Download(context.Background(), first)
		done <- err
	}()

	// Re-select while the barrier is still waiting.
	time.Sleep(20 * time.Millisecond)
	m.Bind(context.Background(), domain.FormatResult{Filename: "b.docx"})
	waitForPhase(t, m, PhaseLive)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("download did not complete")
	}

	view := m.Snapshot()
	assert.Equal(t, PhaseLive, view.Phase, "the rebound session must survive the finished barrier")
	assert.Equal(t, "b.docx", view.Target.Filename)
}

func TestDownload_NoSessionSkipsBarrier(t *testing.T) {
	rt := &fakeRuntime{log: &callLog{}}
	be := &fakeBackend{}
	sink := &eventSink{}
	m := newTestManager(t, rt, be, &fakeHost{exists: true}, sink)
	m.SaveGrace = time.Hour // would hang the test if the barrier ran

	done := make(chan error, 1)
	go func() {
		_, err := m.Download(context.Background(), domain.FormatResult{Filename: "r9.docx"})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("download without a live session must skip the save barrier")
	}
}

func TestDownload_OtherTargetSkipsBarrier(t *testing.T) {
	rt := &fakeRuntime{log: &callLog{}}
	be := &fakeBackend{}
	sink := &eventSink{}
	m := newTestManager(t, rt, be, &fakeHost{exists: true}, sink)

	m.Bind(context.Background(), domain.FormatResult{Filename: "live.docx"})
	waitForPhase(t, m, PhaseLive)
	m.SaveGrace = time.Hour

	done := make(chan error, 1)
	go func() {
		_, err := m.Download(context.Background(), domain.FormatResult{Filename: "other.docx"})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("download of a non-live target must skip the save barrier")
	}

	// The live session is untouched by the other download.
	assert.Equal(t, PhaseLive, m.Snapshot().Phase)
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		target domain.FormatResult
		want   string
	}{
		{domain.FormatResult{Filename: "a1b2.docx", DisplayName: "Resume One"}, "resume-one.docx"},
		{domain.FormatResult{Filename: "a1b2.docx"}, "a1b2.docx"},
		{domain.FormatResult{Filename: "x.pdf", DisplayName: "CV / Final (2024)"}, "cv-final-2024.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, localName(tt.target))
		})
	}
}
