// Package ratelimit implements the in-memory sliding-window limiter that
// guards the contact endpoint.
//
// Each identifier owns an ordered log of admission instants. On every check
// the log is pruned of entries older than the window, and the request is
// admitted only while fewer than Max entries remain. Rejected requests are not
// recorded, so a client hammering the endpoint does not extend its own
// lockout.
//
// Notes:
//   - The table is process-local and reset on restart. It is not shared
//     across replicas; use an external store if the site is ever scaled out.
//   - Identifiers that stay idle for longer than the idle TTL are evicted
//     opportunistically so the table does not grow without bound.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultWindow is the trailing window used when none is configured.
	DefaultWindow = 60 * time.Second
	// DefaultMax is the number of admissions allowed per window.
	DefaultMax = 5
	// defaultSweepEvery is how many Allow calls pass between idle sweeps.
	defaultSweepEvery = 1000
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed bool
	// Remaining is how many more admissions fit in the current window.
	Remaining int
	// RetryAfter is zero when Allowed, otherwise the time until the oldest
	// in-window entry expires.
	RetryAfter time.Duration
}

// Window is a per-identifier sliding-window log. It is safe for concurrent
// use: the prune, count and append for one check happen under a single lock,
// so two concurrent requests can never both take the last slot.
type Window struct {
	window     time.Duration
	max        int
	idleTTL    time.Duration
	sweepEvery uint64

	mu     sync.Mutex
	hits   map[string][]time.Time
	checks uint64
}

// Option customises a Window.
type Option func(*Window)

// WithIdleTTL sets how long an identifier may stay silent before its entry is
// evicted. Values shorter than the window are raised to the window.
func WithIdleTTL(d time.Duration) Option {
	return func(w *Window) { w.idleTTL = d }
}

// WithSweepEvery sets how many checks pass between opportunistic sweeps.
// Zero disables opportunistic sweeping (Sweep can still be called).
func WithSweepEvery(n uint64) Option {
	return func(w *Window) { w.sweepEvery = n }
}

// New builds a limiter admitting at most max hits per identifier within any
// trailing window. Non-positive arguments fall back to the defaults.
func New(window time.Duration, max int, opts ...Option) *Window {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMax
	}
	w := &Window{
		window:     window,
		max:        max,
		idleTTL:    10 * window,
		sweepEvery: defaultSweepEvery,
		hits:       make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.idleTTL < w.window {
		w.idleTTL = w.window
	}
	return w
}

// Admit reports whether a request from id at now is within quota, recording
// it when it is.
func (w *Window) Admit(id string, now time.Time) bool {
	return w.Allow(id, now).Allowed
}

// Allow is Admit with the full decision.
func (w *Window) Allow(id string, now time.Time) Decision {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Sweep before touching id so a stale entry for id itself is dropped
	// rather than refreshed.
	w.checks++
	if w.sweepEvery > 0 && w.checks >= w.sweepEvery {
		w.sweepLocked(now)
		w.checks = 0
	}

	cutoff := now.Add(-w.window)
	ts := w.hits[id]
	kept := ts[:0]
	for _, t := range ts {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= w.max {
		w.hits[id] = kept
		retry := kept[0].Add(w.window).Sub(now)
		if retry <= 0 {
			retry = time.Nanosecond
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}
	}

	kept = append(kept, now)
	w.hits[id] = kept
	return Decision{Allowed: true, Remaining: w.max - len(kept)}
}

// Sweep evicts identifiers whose most recent admission is older than the idle
// TTL and returns how many were removed.
func (w *Window) Sweep(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sweepLocked(now)
}

func (w *Window) sweepLocked(now time.Time) int {
	cutoff := now.Add(-w.idleTTL)
	n := 0
	for id, ts := range w.hits {
		if len(ts) == 0 || ts[len(ts)-1].Before(cutoff) {
			delete(w.hits, id)
			n++
		}
	}
	return n
}

// Len returns the number of tracked identifiers.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.hits)
}

// Limit returns the configured window and maximum.
func (w *Window) Limit() (time.Duration, int) { return w.window, w.max }
