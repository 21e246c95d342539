package editor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, handler http.Handler) *HTTPRuntime {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rt, err := NewHTTPRuntime(srv.URL)
	require.NoError(t, err)
	rt.PollInterval = time.Millisecond
	rt.PollAttempts = 5
	return rt
}

func TestWaitReady_Immediate(t *testing.T) {
	rt := newRuntime(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthcheck", r.URL.Path)
		w.Write([]byte("true"))
	}))

	require.NoError(t, rt.WaitReady(context.Background()))
}

func TestWaitReady_BecomesAvailable(t *testing.T) {
	var calls atomic.Int32
	rt := newRuntime(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("true"))
	}))

	require.NoError(t, rt.WaitReady(context.Background()))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

// A 2xx from a still-booting runtime carries a non-"true" body and does
// not count as ready.
func TestWaitReady_IgnoresNonTrueBody(t *testing.T) {
	var calls atomic.Int32
	rt := newRuntime(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Write([]byte("starting"))
			return
		}
		w.Write([]byte("true"))
	}))

	require.NoError(t, rt.WaitReady(context.Background()))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitReady_TimeoutAtBound(t *testing.T) {
	var calls atomic.Int32
	rt := newRuntime(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	err := rt.WaitReady(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuntimeTimeout))
	assert.Equal(t, int32(5), calls.Load(), "polling must stop at the attempt bound")
}

func TestWaitReady_ContextCancel(t *testing.T) {
	rt := newRuntime(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	rt.PollInterval = time.Hour
	rt.PollAttempts = 2

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := rt.WaitReady(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMountAndDestroy(t *testing.T) {
	var deletes atomic.Int32
	rt := newRuntime(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/editors":
			var req mountRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "editor-pane", req.MountID)
			assert.NotEmpty(t, req.Config)
			w.Write([]byte(`{"success":true,"id":"sess-1"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/editors/sess-1":
			if deletes.Add(1) > 1 {
				// Session is already gone server-side.
				http.Error(w, "gone", http.StatusNotFound)
				return
			}
			w.Write([]byte(`{"success":true}`))
		default:
			http.NotFound(w, r)
		}
	}))

	inst, err := rt.Mount(context.Background(), "editor-pane", json.RawMessage(`{"document":{"key":"k"}}`))
	require.NoError(t, err)

	require.NoError(t, inst.Destroy())
	// Destroy is idempotent client-side: the second call short-circuits.
	require.NoError(t, inst.Destroy())
	assert.Equal(t, int32(1), deletes.Load())
}

func TestMount_RuntimeReportsFailure(t *testing.T) {
	rt := newRuntime(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"document busy"}`))
	}))

	_, err := rt.Mount(context.Background(), "editor-pane", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document busy")
}

func TestDestroy_AlreadyGoneIsNotAnError(t *testing.T) {
	rt := newRuntime(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"success":true,"id":"sess-2"}`))
			return
		}
		http.Error(w, "gone", http.StatusNotFound)
	}))

	inst, err := rt.Mount(context.Background(), "editor-pane", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NoError(t, inst.Destroy())
}
