package limiter

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestLimiter(policy Policy) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New(policy)
	l.now = clock.Now
	return l, clock
}

func TestLoginLockout(t *testing.T) {
	policy := Policy{Window: 10 * time.Minute, Max: 5, Lock: 15 * time.Minute}
	l, clock := newTestLimiter(policy)

	for i := 0; i < 5; i++ {
		if ok, _ := l.Check("1.2.3.4"); !ok {
			t.Fatalf("attempt %d should be admitted before lockout", i+1)
		}
		l.Fail("1.2.3.4")
	}

	// The next attempt is rejected even though the caller would present
	// correct credentials.
	ok, retry := l.Check("1.2.3.4")
	if ok {
		t.Fatal("expected lockout after max failures")
	}
	if retry != policy.Lock {
		t.Fatalf("retry-after = %v, want %v", retry, policy.Lock)
	}

	clock.Advance(policy.Lock + time.Second)
	if ok, _ := l.Check("1.2.3.4"); !ok {
		t.Fatal("lock should have expired")
	}
}

func TestLoginResetClearsHistory(t *testing.T) {
	l, _ := newTestLimiter(Policy{Window: 10 * time.Minute, Max: 3, Lock: 15 * time.Minute})

	l.Fail("origin")
	l.Fail("origin")
	l.Reset("origin")

	// A fresh window: two more failures must not lock.
	l.Fail("origin")
	l.Fail("origin")
	if ok, _ := l.Check("origin"); !ok {
		t.Fatal("reset should have cleared the failure count")
	}
}

func TestWindowRotation(t *testing.T) {
	l, clock := newTestLimiter(Policy{Window: 10 * time.Minute, Max: 3, Lock: 15 * time.Minute})

	l.Fail("k")
	l.Fail("k")
	clock.Advance(11 * time.Minute)

	// The window elapsed: the count starts over.
	l.Fail("k")
	l.Fail("k")
	if ok, _ := l.Check("k"); !ok {
		t.Fatal("failures from an elapsed window must not count")
	}
}

func TestSubmissionBurstCeiling(t *testing.T) {
	// Scenario: limit 20 per 10 minutes, 21 attempts from one origin.
	policy := Policy{Window: 10 * time.Minute, Max: 20, Lock: 30 * time.Minute}
	l, _ := newTestLimiter(policy)

	for i := 0; i < 20; i++ {
		ok, _ := l.Hit("9.9.9.9")
		if !ok {
			t.Fatalf("attempt %d should be admitted", i+1)
		}
	}
	ok, retry := l.Hit("9.9.9.9")
	if ok {
		t.Fatal("21st attempt should be rejected")
	}
	if retry != policy.Lock {
		t.Fatalf("retry-after = %v, want the configured lock %v", retry, policy.Lock)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Policy{Window: 10 * time.Minute, Max: 2, Lock: 10 * time.Minute})

	l.Fail("a")
	l.Fail("a")
	if ok, _ := l.Check("a"); ok {
		t.Fatal("key a should be locked")
	}
	if ok, _ := l.Check("b"); !ok {
		t.Fatal("key b must be unaffected by key a's lock")
	}
}

func TestSweep(t *testing.T) {
	l, clock := newTestLimiter(Policy{Window: 10 * time.Minute, Max: 5, Lock: 15 * time.Minute})

	l.Fail("stale")
	for i := 0; i < 5; i++ {
		l.Fail("locked")
	}
	clock.Advance(11 * time.Minute)

	removed := l.Sweep()
	if removed != 1 {
		t.Fatalf("sweep removed %d entries, want 1 (locked entries stay)", removed)
	}
	if _, ok := l.entries["locked"]; !ok {
		t.Fatal("locked entry must survive the sweep")
	}
}
