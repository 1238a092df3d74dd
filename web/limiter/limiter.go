// Package limiter implements in-process admission control: sliding-window
// counters with lockout escalation, keyed by origin address or by identity.
// State lives in memory only and is not shared across instances.
package limiter

import (
	"sync"
	"time"
)

// Policy parameterizes one sliding window: at most Max counted attempts per
// Window; exceeding that locks the key out for Lock.
type Policy struct {
	Window time.Duration
	Max    int
	Lock   time.Duration
}

type entry struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

// Limiter tracks one window per key. Check-then-increment runs under a single
// mutex so a burst cannot slip through at the window boundary.
type Limiter struct {
	policy Policy

	mu      sync.Mutex
	entries map[string]*entry

	// now is swappable for tests.
	now func() time.Time
}

func New(policy Policy) *Limiter {
	return &Limiter{
		policy:  policy,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Check reports whether the key is currently admitted. It never counts an
// attempt; callers that count every attempt use Hit instead. A zero
// retry-after means admitted.
func (l *Limiter) Check(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[key]
	if e == nil {
		return true, 0
	}
	now := l.now()
	if retry := l.locked(e, now); retry > 0 {
		return false, retry
	}
	l.rotate(e, now)
	return true, 0
}

// Hit counts an attempt and reports whether it is admitted. Used for public
// submissions, which count regardless of outcome.
func (l *Limiter) Hit(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := l.get(key, now)
	if retry := l.locked(e, now); retry > 0 {
		return false, retry
	}
	l.rotate(e, now)
	e.count++
	if e.count > l.policy.Max {
		e.lockedUntil = now.Add(l.policy.Lock)
		return false, l.policy.Lock
	}
	return true, 0
}

// Fail counts a failed attempt without admitting anything. Used for logins,
// which only count credential failures.
func (l *Limiter) Fail(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := l.get(key, now)
	l.rotate(e, now)
	e.count++
	// The failure that reaches Max locks the key: the next attempt is
	// rejected even with correct credentials.
	if e.count >= l.policy.Max {
		e.lockedUntil = now.Add(l.policy.Lock)
	}
}

// Reset drops the key entirely, e.g. after a successful login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Sweep removes entries whose window elapsed and that are not locked. Bounds
// memory under churning keys; called periodically by a job.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, e := range l.entries {
		if now.Before(e.lockedUntil) {
			continue
		}
		if now.Sub(e.windowStart) > l.policy.Window {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) get(key string, now time.Time) *entry {
	e := l.entries[key]
	if e == nil {
		e = &entry{windowStart: now}
		l.entries[key] = e
	}
	return e
}

func (l *Limiter) locked(e *entry, now time.Time) time.Duration {
	if now.Before(e.lockedUntil) {
		return e.lockedUntil.Sub(now)
	}
	return 0
}

// rotate resets an elapsed window.
func (l *Limiter) rotate(e *entry, now time.Time) {
	if now.Sub(e.windowStart) > l.policy.Window {
		e.count = 0
		e.windowStart = now
		e.lockedUntil = time.Time{}
	}
}
