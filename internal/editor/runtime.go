package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/resumekit/resumedesk/internal/logger"
)

// ErrRuntimeTimeout is reported when the external editor runtime never
// signals readiness within the polling bound.
var ErrRuntimeTimeout = errors.New("editor runtime not available")

// Readiness polling bounds. 50 attempts at 200ms is roughly ten seconds.
const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultPollAttempts = 50
)

// Instance is a handle to one mounted editor. Destroy must be safe to
// call more than once.
type Instance interface {
	Destroy() error
}

// Runtime abstracts the separately hosted document-editing engine. The
// client never assumes the runtime is up: WaitReady is the single
// wait-until-ready-or-timeout primitive, cancellable through its context,
// and Mount instantiates one editor against a mount point using a
// configuration blob the backend produced.
type Runtime interface {
	WaitReady(ctx context.Context) error
	Mount(ctx context.Context, mountID string, cfg json.RawMessage) (Instance, error)
}

// MountHost answers whether a mount point still exists at the instant a
// mount is attempted. The owning view supplies the real implementation.
type MountHost interface {
	Exists(mountID string) bool
}

// HTTPRuntime drives a document server over HTTP: readiness is its
// healthcheck endpoint, mounting creates a server-side editor session.
type HTTPRuntime struct {
	baseURL    string
	httpClient *http.Client

	// PollInterval and PollAttempts bound the readiness wait. Tests
	// shrink them to microseconds.
	PollInterval time.Duration
	PollAttempts int
}

// NewHTTPRuntime creates a runtime client for the given document server.
func NewHTTPRuntime(baseURL string) (*HTTPRuntime, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("editor runtime base URL is required")
	}
	return &HTTPRuntime{
		baseURL:      trimmed,
		httpClient:   &http.Client{},
		PollInterval: DefaultPollInterval,
		PollAttempts: DefaultPollAttempts,
	}, nil
}

// WaitReady polls the runtime healthcheck until it answers, the attempt
// bound is exceeded, or ctx is cancelled. Exceeding the bound returns
// ErrRuntimeTimeout.
func (r *HTTPRuntime) WaitReady(ctx context.Context) error {
	for attempt := 0; attempt < r.PollAttempts; attempt++ {
		if r.healthy(ctx) {
			return nil
		}
		if attempt == r.PollAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.PollInterval):
		}
	}
	return ErrRuntimeTimeout
}

func (r *HTTPRuntime) healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/healthcheck", nil)
	if err != nil {
		return false
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	// The runtime answers a literal "true" once fully started; a 2xx
	// while still booting carries anything else.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(body)) == "true"
}

type mountRequest struct {
	MountID string          `json:"mount_id"`
	Config  json.RawMessage `json:"config"`
}

type mountResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error,omitempty"`
}

// Mount creates a server-side editor session bound to mountID and returns
// its handle.
func (r *HTTPRuntime) Mount(ctx context.Context, mountID string, cfg json.RawMessage) (Instance, error) {
	body, err := json.Marshal(mountRequest{MountID: mountID, Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("marshaling mount request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/editors", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building mount request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mounting editor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mounting editor: status %d", resp.StatusCode)
	}

	var out mountResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding mount response: %w", err)
	}
	if !out.Success || out.ID == "" {
		return nil, fmt.Errorf("mounting editor: %s", orDefault(out.Error, "runtime reported failure"))
	}

	return &httpInstance{runtime: r, id: out.ID}, nil
}

// httpInstance tears down a server-side editor session. Destroy is
// idempotent: once torn down, later calls return nil, and a session that
// is already gone on the server counts as destroyed.
type httpInstance struct {
	runtime *HTTPRuntime

	mu        sync.Mutex
	id        string
	destroyed bool
}

func (i *httpInstance) Destroy() error {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return nil
	}
	i.destroyed = true
	id := i.id
	i.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, i.runtime.baseURL+"/editors/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("building teardown request: %w", err)
	}

	resp, err := i.runtime.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tearing down editor %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// Already gone server-side.
		logger.Debug("Editor %s was already torn down", id)
		return nil
	default:
		return fmt.Errorf("tearing down editor %s: status %d", id, resp.StatusCode)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
