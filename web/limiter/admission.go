package limiter

import (
	"strings"
	"time"
)

// Admission bundles the limiters protecting the panel's two guarded entry
// classes: login attempts and public submissions.
type Admission struct {
	login          *Limiter
	submitOrigin   *Limiter
	submitIdentity *Limiter
	submitDaily    *Limiter
}

// Config carries every externally tunable threshold.
type Config struct {
	Login        Policy
	SubmitOrigin Policy
	SubmitEmail  Policy
	// DailyCap bounds submissions per identity over 24h regardless of the
	// short burst window.
	DailyCap int
}

func NewAdmission(cfg Config) *Admission {
	return &Admission{
		login:          New(cfg.Login),
		submitOrigin:   New(cfg.SubmitOrigin),
		submitIdentity: New(cfg.SubmitEmail),
		submitDaily: New(Policy{
			Window: 24 * time.Hour,
			Max:    cfg.DailyCap,
			Lock:   24 * time.Hour,
		}),
	}
}

// CheckLogin reports whether a login attempt from the origin may proceed.
// Nothing is counted here; credential failures are reported via LoginFailed.
func (a *Admission) CheckLogin(origin string) (bool, time.Duration) {
	return a.login.Check(origin)
}

// LoginFailed counts a credential failure against the origin.
func (a *Admission) LoginFailed(origin string) {
	a.login.Fail(origin)
}

// LoginSucceeded clears the origin's failure history.
func (a *Admission) LoginSucceeded(origin string) {
	a.login.Reset(origin)
}

// Submit counts a public submission against both the origin and the
// normalized identity. Every attempt counts, valid or not; either lock
// rejects with the longer retry-after.
func (a *Admission) Submit(origin, email string) (bool, time.Duration) {
	ok, retry := a.submitOrigin.Hit(origin)

	identity := NormalizeEmail(email)
	if identity != "" {
		if idOK, idRetry := a.submitIdentity.Hit(identity); !idOK {
			ok = false
			if idRetry > retry {
				retry = idRetry
			}
		}
		if dayOK, dayRetry := a.submitDaily.Hit(identity); !dayOK {
			ok = false
			if dayRetry > retry {
				retry = dayRetry
			}
		}
	}
	return ok, retry
}

// Sweep prunes elapsed entries in every limiter.
func (a *Admission) Sweep() int {
	total := a.login.Sweep()
	total += a.submitOrigin.Sweep()
	total += a.submitIdentity.Sweep()
	total += a.submitDaily.Sweep()
	return total
}

// NormalizeEmail lowercases and trims an identity key so "A@B.com " and
// "a@b.com" share a window.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
