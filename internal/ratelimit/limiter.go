// Package ratelimit implements a sliding-window admission gate keyed by
// user/wallet identifier. Every ledger-touching or deep-link-producing
// operation consults this gate first.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Config is a (requests, interval) admission pair.
type Config struct {
	Requests int
	Interval time.Duration
}

// DefaultConfig allows 5 requests per minute.
func DefaultConfig() Config {
	return Config{Requests: 5, Interval: 60 * time.Second}
}

// LimitExceededError carries the wait the user must observe. Informational,
// never logged as an error.
type LimitExceededError struct {
	RetryAfter int // seconds
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limited, retry after %d seconds", e.RetryAfter)
}

// window tracks one identifier's admissions. Guarded by its own mutex so
// rapid double-submission from one user serializes without blocking others.
type window struct {
	mu       sync.Mutex
	requests int
	interval time.Duration
	stamps   []time.Time
}

// Limiter is a concurrency-safe admission gate. Constructed once at startup
// and passed by handle to every component that needs it; state is not
// persisted across restarts.
type Limiter struct {
	mu        sync.Mutex
	defaults  Config
	overrides map[string]Config
	windows   map[string]*window
	now       func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithOverride sets a per-user (requests, interval) pair.
func WithOverride(userID string, cfg Config) Option {
	return func(l *Limiter) {
		l.overrides[userID] = cfg
	}
}

// WithClock substitutes the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter with the given default window.
func New(defaults Config, opts ...Option) *Limiter {
	if defaults.Requests <= 0 || defaults.Interval <= 0 {
		defaults = DefaultConfig()
	}
	l := &Limiter{
		defaults:  defaults,
		overrides: make(map[string]Config),
		windows:   make(map[string]*window),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check admits or rejects one request for the identifier. On rejection the
// second return value is the whole seconds remaining until the oldest
// admission leaves the window.
func (l *Limiter) Check(userID string) (bool, int) {
	w := l.window(userID)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()

	// Prune admissions that have left the window.
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if now.Sub(ts) <= w.interval {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= w.requests {
		remaining := w.interval - now.Sub(w.stamps[0])
		retryAfter := int(remaining / time.Second)
		if remaining%time.Second != 0 {
			retryAfter++
		}
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	w.stamps = append(w.stamps, now)
	return true, 0
}

// window returns the identifier's window, allocating one on first use.
func (l *Limiter) window(userID string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.windows[userID]; ok {
		return w
	}

	cfg := l.defaults
	if o, ok := l.overrides[userID]; ok {
		cfg = o
	}
	w := &window{requests: cfg.Requests, interval: cfg.Interval}
	l.windows[userID] = w
	return w
}
