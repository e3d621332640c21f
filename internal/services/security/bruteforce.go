// Package security provides request-time protections: brute-force lockout,
// request rate limiting, IP filtering and API key management.
package security

import (
	"sync"
	"time"
)

// BruteForceConfig tunes lockout behaviour. Window and Lockout are independent.
type BruteForceConfig struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// DefaultBruteForceConfig returns 5 attempts per 15 minutes with a 15 minute lockout
func DefaultBruteForceConfig() BruteForceConfig {
	return BruteForceConfig{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		Lockout:     15 * time.Minute,
	}
}

// Decision is the outcome of recording a login attempt
type Decision struct {
	Allowed           bool       `json:"allowed"`
	Reason            string     `json:"reason,omitempty"`
	UnlockTime        *time.Time `json:"unlockTime,omitempty"`
	RemainingAttempts int        `json:"remainingAttempts,omitempty"`
}

// Status describes the lockout state of one identifier
type Status struct {
	Locked            bool          `json:"locked"`
	Attempts          int           `json:"attempts"`
	RemainingAttempts int           `json:"remainingAttempts"`
	UnlockTime        *time.Time    `json:"unlockTime,omitempty"`
	RemainingTime     time.Duration `json:"remainingTime,omitempty"`
}

type bruteForceEntry struct {
	attempts     []time.Time
	lockoutUntil time.Time
}

// BruteForce tracks failed logins per identifier (the client IP)
type BruteForce struct {
	cfg       BruteForceConfig
	mu        sync.Mutex
	entries   map[string]*bruteForceEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewBruteForce creates a tracker; zero config fields take the defaults
func NewBruteForce(cfg BruteForceConfig) *BruteForce {
	def := DefaultBruteForceConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = def.Lockout
	}

	return &BruteForce{
		cfg:     cfg,
		entries: make(map[string]*bruteForceEntry),
		now:     time.Now,
	}
}

// RecordAttempt registers a login attempt for id and returns whether further
// attempts are allowed. A success clears all state for id.
func (b *BruteForce) RecordAttempt(id string, success bool) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.sweepLocked(now)

	if success {
		delete(b.entries, id)
		return Decision{Allowed: true}
	}

	e := b.entries[id]
	if e == nil {
		e = &bruteForceEntry{}
		b.entries[id] = e
	}
	e.attempts = b.prune(e.attempts, now)
	e.attempts = append(e.attempts, now)

	if len(e.attempts) >= b.cfg.MaxAttempts {
		e.lockoutUntil = now.Add(b.cfg.Lockout)
		unlock := e.lockoutUntil
		return Decision{
			Allowed:    false,
			Reason:     "Too many failed attempts",
			UnlockTime: &unlock,
		}
	}

	return Decision{
		Allowed:           true,
		RemainingAttempts: b.cfg.MaxAttempts - len(e.attempts),
	}
}

// IsLockedOut reports whether id is inside an active lockout. An expired
// lockout clears the identifier's state.
func (b *BruteForce) IsLockedOut(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.lockedLocked(id, b.now())
}

// Status reports attempt counts and lockout state for id
func (b *BruteForce) Status(id string) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.lockedLocked(id, now) {
		e := b.entries[id]
		unlock := e.lockoutUntil
		return Status{
			Locked:        true,
			Attempts:      len(e.attempts),
			UnlockTime:    &unlock,
			RemainingTime: unlock.Sub(now),
		}
	}

	attempts := 0
	if e := b.entries[id]; e != nil {
		e.attempts = b.prune(e.attempts, now)
		attempts = len(e.attempts)
	}
	return Status{
		Attempts:          attempts,
		RemainingAttempts: b.cfg.MaxAttempts - attempts,
	}
}

// LockedIdentifiers lists identifiers currently locked out
func (b *BruteForce) LockedIdentifiers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.sweepLocked(now)
	var ids []string
	for id := range b.entries {
		if b.lockedLocked(id, now) {
			ids = append(ids, id)
		}
	}
	return ids
}

// lockedLocked must be called with mu held
func (b *BruteForce) lockedLocked(id string, now time.Time) bool {
	e := b.entries[id]
	if e == nil || e.lockoutUntil.IsZero() {
		return false
	}
	if now.After(e.lockoutUntil) {
		delete(b.entries, id)
		return false
	}
	return true
}

// sweepLocked drops identifiers with no live lockout and no attempts inside
// the window. It runs at most once per window; mu must be held.
func (b *BruteForce) sweepLocked(now time.Time) {
	if now.Sub(b.lastSweep) < b.cfg.Window {
		return
	}
	b.lastSweep = now

	for id, e := range b.entries {
		if !e.lockoutUntil.IsZero() && !now.After(e.lockoutUntil) {
			continue
		}
		e.attempts = b.prune(e.attempts, now)
		if len(e.attempts) == 0 {
			delete(b.entries, id)
		}
	}
}

// prune drops attempts older than the window
func (b *BruteForce) prune(attempts []time.Time, now time.Time) []time.Time {
	kept := attempts[:0]
	for _, t := range attempts {
		if now.Sub(t) < b.cfg.Window {
			kept = append(kept, t)
		}
	}
	return kept
}
