package ratelimiter

import (
	"sync"
	"time"
)

// Config defines a fixed-window rate limit.
type Config struct {
	// Limit is the maximum number of allowed attempts per window.
	Limit int

	// Window is the duration of the counting window.
	Window time.Duration
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return ErrInvalidLimit
	}
	if c.Window <= 0 {
		return ErrInvalidWindow
	}
	return nil
}

// Result reports the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the attempt may proceed.
	Allowed bool

	// Remaining is the number of attempts left in the current window.
	Remaining int

	// ResetAt is when the current window expires and the counter resets.
	ResetAt time.Time
}

// RetryAfter returns the duration until the window resets,
// clamped to zero when the window has already expired.
func (r Result) RetryAfter() time.Duration {
	d := time.Until(r.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

type window struct {
	count   int
	startAt time.Time
}

// Limiter counts attempts per key within fixed time windows.
// The first attempt for a key opens a window; once the window
// elapses the counter resets. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	windows map[string]*window
	now     func() time.Time
}

// New creates a limiter with the given configuration.
func New(cfg Config) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{
		cfg:     cfg,
		windows: make(map[string]*window),
		now:     time.Now,
	}, nil
}

// Allow records an attempt for key and reports whether it is within
// the limit. Denied attempts do not extend the window.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= l.cfg.Window {
		w = &window{startAt: now}
		l.windows[key] = w
	}

	resetAt := w.startAt.Add(l.cfg.Window)
	if w.count >= l.cfg.Limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	w.count++
	return Result{
		Allowed:   true,
		Remaining: l.cfg.Limit - w.count,
		ResetAt:   resetAt,
	}
}

// Status reports the current counter for key without consuming an attempt.
func (l *Limiter) Status(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= l.cfg.Window {
		return Result{
			Allowed:   true,
			Remaining: l.cfg.Limit,
			ResetAt:   now.Add(l.cfg.Window),
		}
	}

	remaining := l.cfg.Limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetAt:   w.startAt.Add(l.cfg.Window),
	}
}

// Reset clears the counter for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}
