package wizard

import "sync"

// History mirrors step changes into an explicit navigation stack so
// back/forward gestures move between steps without reloading anything.
// Every applied step change is pushed as an entry tagged with its step;
// navigating back or forward replays the tagged step through the
// controller without pushing again, which would otherwise feed back into
// a new entry.
type History struct {
	mu      sync.Mutex
	entries []int
	idx     int
}

// NewHistory creates an empty navigation stack.
func NewHistory() *History {
	return &History{idx: -1}
}

// Replace overwrites the current entry with step. Used once at startup so
// the very first back gesture does not walk off the stack into nothing.
func (h *History) Replace(step int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.idx < 0 {
		h.entries = []int{step}
		h.idx = 0
		return
	}
	h.entries[h.idx] = step
}

// Push appends a new entry after the current position, discarding any
// forward entries, matching browser pushState semantics.
func (h *History) Push(step int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.idx+1], step)
	h.idx = len(h.entries) - 1
}

// Back moves to the previous entry and returns its step.
func (h *History) Back() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.idx <= 0 {
		return 0, false
	}
	h.idx--
	return h.entries[h.idx], true
}

// Forward moves to the next entry and returns its step.
func (h *History) Forward() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.idx < 0 || h.idx >= len(h.entries)-1 {
		return 0, false
	}
	h.idx++
	return h.entries[h.idx], true
}

// Len returns the number of entries on the stack.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Current returns the step tagged on the current entry.
func (h *History) Current() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.idx < 0 {
		return 0, false
	}
	return h.entries[h.idx], true
}
