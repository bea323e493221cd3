// Package revocation keeps the set of bearer tokens that were invalidated
// before their natural expiry.
//
// Entries are keyed by the SHA-256 digest of the raw token and remember the
// token's own exp. An entry is only dropped once that exp has passed, at
// which point the token is rejected on expiry alone, so eviction can never
// resurrect a revoked token.
package revocation

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

type Store struct {
	mu      sync.RWMutex
	entries map[string]time.Time

	now             func() time.Time
	logger          *slog.Logger
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store. A positive cleanupInterval starts a background loop
// that purges expired entries; with zero, entries are only evicted lazily by
// IsRevoked or by calling Cleanup. Stop must be called to end the loop.
func New(cleanupInterval time.Duration, opts ...Option) *Store {
	s := &Store{
		entries:         make(map[string]time.Time),
		now:             time.Now,
		logger:          slog.Default(),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop()
	}

	return s
}

// Revoke marks token as revoked until expiresAt. Revoking again keeps the
// later of the two expiries.
func (s *Store) Revoke(token string, expiresAt time.Time) {
	key := digest(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[key]; ok && cur.After(expiresAt) {
		return
	}
	s.entries[key] = expiresAt
}

// TryRevoke revokes token only if it is not already revoked and reports
// whether this call did the revoking. Of any number of concurrent callers
// with the same token, exactly one gets true.
func (s *Store) TryRevoke(token string, expiresAt time.Time) bool {
	key := digest(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := s.entries[key]; ok && !s.expired(exp) {
		return false
	}
	s.entries[key] = expiresAt
	return true
}

func (s *Store) IsRevoked(token string) bool {
	key := digest(token)

	s.mu.RLock()
	exp, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	if !s.expired(exp) {
		return true
	}

	s.mu.Lock()
	if cur, ok := s.entries[key]; ok && s.expired(cur) {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	return false
}

// Cleanup removes every entry whose natural expiry has passed and returns
// how many were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := 0
	for key, exp := range s.entries {
		if s.expired(exp) {
			delete(s.entries, key)
			cleaned++
		}
	}
	return cleaned
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stop ends the background cleanup loop. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				s.logger.Debug("revocation cleanup", "evicted", n, "remaining", s.Len())
			}
		}
	}
}

// expired is strict: an entry survives through the instant of its expiry.
func (s *Store) expired(exp time.Time) bool {
	return s.now().After(exp)
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
