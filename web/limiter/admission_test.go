package limiter

import (
	"testing"
	"time"
)

func newTestAdmission() (*Admission, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	a := NewAdmission(Config{
		Login:        Policy{Window: 10 * time.Minute, Max: 5, Lock: 15 * time.Minute},
		SubmitOrigin: Policy{Window: 10 * time.Minute, Max: 20, Lock: 30 * time.Minute},
		SubmitEmail:  Policy{Window: 10 * time.Minute, Max: 5, Lock: 30 * time.Minute},
		DailyCap:     50,
	})
	for _, l := range []*Limiter{a.login, a.submitOrigin, a.submitIdentity, a.submitDaily} {
		l.now = clock.Now
	}
	return a, clock
}

func TestSubmitCountsIdentityAcrossOrigins(t *testing.T) {
	a, _ := newTestAdmission()

	// Identity limit (5) trips before the origin limit (20) even when every
	// attempt comes from a different address.
	origins := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}
	for i, origin := range origins {
		if ok, _ := a.Submit(origin, "Farmer@Example.com"); !ok {
			t.Fatalf("attempt %d should be admitted", i+1)
		}
	}
	ok, retry := a.Submit("10.0.0.6", "farmer@example.com ")
	if ok {
		t.Fatal("6th submission for the same identity should be rejected")
	}
	if retry <= 0 {
		t.Fatal("rejection must carry a retry-after")
	}
}

func TestSubmitWithoutEmailOnlyCountsOrigin(t *testing.T) {
	a, _ := newTestAdmission()

	for i := 0; i < 20; i++ {
		if ok, _ := a.Submit("3.3.3.3", ""); !ok {
			t.Fatalf("attempt %d should be admitted", i+1)
		}
	}
	if ok, _ := a.Submit("3.3.3.3", ""); ok {
		t.Fatal("origin ceiling should reject the 21st attempt")
	}
}

func TestSubmitDailyCap(t *testing.T) {
	a, clock := newTestAdmission()

	// Stay under the burst ceiling by spacing attempts across windows; the
	// 24h cap still accumulates.
	admitted := 0
	for day := 0; admitted < 50; day++ {
		for i := 0; i < 5 && admitted < 50; i++ {
			ok, _ := a.Submit("2.2.2.2", "daily@example.com")
			if !ok {
				t.Fatalf("attempt %d should be admitted", admitted+1)
			}
			admitted++
		}
		clock.Advance(11 * time.Minute)
	}
	if ok, _ := a.Submit("2.2.2.2", "daily@example.com"); ok {
		t.Fatal("the daily cap should reject the 51st submission")
	}
}

func TestLoginFlow(t *testing.T) {
	a, _ := newTestAdmission()

	for i := 0; i < 5; i++ {
		if ok, _ := a.CheckLogin("8.8.8.8"); !ok {
			t.Fatalf("attempt %d should be admitted", i+1)
		}
		a.LoginFailed("8.8.8.8")
	}
	if ok, _ := a.CheckLogin("8.8.8.8"); ok {
		t.Fatal("origin should be locked after repeated failures")
	}

	// Success on another origin clears only that origin.
	a.LoginFailed("7.7.7.7")
	a.LoginSucceeded("7.7.7.7")
	if ok, _ := a.CheckLogin("7.7.7.7"); !ok {
		t.Fatal("cleared origin should be admitted")
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  spaced@example.com ", "spaced@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
