package service

import (
	"sync"
	"time"
)

// AttemptStore records login attempt outcomes and answers failure-count
// queries. The default implementation is in-memory and process-local;
// the interface exists so a shared backing store can replace it without
// touching the login flow.
type AttemptStore interface {
	// RecordFailure appends a failed attempt for key at the given time.
	RecordFailure(key string, at time.Time)

	// FailureCount returns how many failures key accumulated since the
	// given time.
	FailureCount(key string, since time.Time) int

	// Prune drops failures older than the given time and forgets keys
	// left with none.
	Prune(before time.Time)
}

// LoginAttemptTracker enforces the brute-force lockout policy: a key is
// locked out while its failure count inside the trailing window has
// reached the configured maximum. Lockout clears only by time decay as
// the oldest counted failure slides out of the window; a successful
// login never erases earlier failures.
type LoginAttemptTracker struct {
	store       AttemptStore
	window      time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewLoginAttemptTracker builds a tracker over an in-memory store.
func NewLoginAttemptTracker(window time.Duration, maxAttempts int) *LoginAttemptTracker {
	return &LoginAttemptTracker{
		store:       newMemoryAttemptStore(),
		window:      window,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Record notes the outcome of an authentication attempt for key.
// Successes are accepted for completeness but change no state: the
// sliding window is strict, so only time clears failures.
func (t *LoginAttemptTracker) Record(key string, success bool) {
	if success {
		return
	}
	t.store.RecordFailure(key, t.now())
}

// IsLockedOut reports whether key has reached the failure threshold
// within the trailing window. Callers check this before verifying
// credentials and must surface the same generic rejection as a bad
// password.
func (t *LoginAttemptTracker) IsLockedOut(key string) bool {
	since := t.now().Add(-t.window)
	return t.store.FailureCount(key, since) >= t.maxAttempts
}

// Prune discards records that can no longer influence a lockout
// decision. Called by housekeeping; correctness never depends on it.
func (t *LoginAttemptTracker) Prune() {
	t.store.Prune(t.now().Add(-t.window))
}

// memoryAttemptStore keeps per-key failure timestamps with a lock per
// key, so unrelated identities never contend on one mutex.
type memoryAttemptStore struct {
	entries sync.Map // map[string]*attemptEntry
}

type attemptEntry struct {
	mu       sync.Mutex
	failures []time.Time
}

func newMemoryAttemptStore() *memoryAttemptStore {
	return &memoryAttemptStore{}
}

func (s *memoryAttemptStore) entry(key string) *attemptEntry {
	if e, ok := s.entries.Load(key); ok {
		return e.(*attemptEntry)
	}
	e, _ := s.entries.LoadOrStore(key, &attemptEntry{})
	return e.(*attemptEntry)
}

func (s *memoryAttemptStore) RecordFailure(key string, at time.Time) {
	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, at)
}

func (s *memoryAttemptStore) FailureCount(key string, since time.Time) int {
	v, ok := s.entries.Load(key)
	if !ok {
		return 0
	}
	e := v.(*attemptEntry)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Drop expired records while counting; they can never count again.
	e.failures = trimBefore(e.failures, since)
	return len(e.failures)
}

func (s *memoryAttemptStore) Prune(before time.Time) {
	s.entries.Range(func(key, value any) bool {
		e := value.(*attemptEntry)
		e.mu.Lock()
		e.failures = trimBefore(e.failures, before)
		empty := len(e.failures) == 0
		e.mu.Unlock()

		if empty {
			s.entries.Delete(key)
		}
		return true
	})
}

// trimBefore removes timestamps strictly before cutoff. Records arrive
// in order per key, so a single scan from the front suffices.
func trimBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
