// Package ratelimit implements the per-sender sliding window that bounds how
// many SMS commands a phone number may issue per hour.
package ratelimit

import (
	"sync"
	"time"
)

// Window is an in-memory sliding-window limiter keyed by phone number.
// Each Allow call prunes the sender's timestamp list to the window, checks it
// against the cap, and appends the current time only when the request is
// admitted — a denied request does not consume a slot.
type Window struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	history map[string][]time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// NewWindow creates a limiter admitting max requests per window per key.
func NewWindow(max int, window time.Duration) *Window {
	return &Window{
		max:     max,
		window:  window,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether the key may make another request, and records it if so.
func (w *Window) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	kept := w.history[key][:0]
	for _, ts := range w.history[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= w.max {
		w.history[key] = kept
		return false
	}

	w.history[key] = append(kept, now)
	return true
}

// Remaining returns how many requests the key has left in the current window.
func (w *Window) Remaining(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.window)
	used := 0
	for _, ts := range w.history[key] {
		if ts.After(cutoff) {
			used++
		}
	}
	if used >= w.max {
		return 0
	}
	return w.max - used
}

// Max returns the per-window request cap.
func (w *Window) Max() int {
	return w.max
}
