package store

import (
	"sync"
	"time"
)

// CooldownStore tracks per-symbol cooldown windows set after rate-limited
// fetches. It is keyed to wall-clock invocation time, not to the historical
// dates being replayed: the cooldown guards the live upstream provider.
type CooldownStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]time.Time
	now func() time.Time
}

// NewCooldownStore creates a CooldownStore whose records expire after ttl.
func NewCooldownStore(ttl time.Duration) *CooldownStore {
	return &CooldownStore{
		ttl: ttl,
		m:   make(map[string]time.Time),
		now: time.Now,
	}
}

// SetClock pins the store's clock. Tests only.
func (s *CooldownStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Set creates or refreshes the cooldown record for symbol.
func (s *CooldownStore) Set(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[symbol] = s.now().Add(s.ttl)
}

// Active reports whether symbol is currently cooling down. Expired records
// are deleted on read.
func (s *CooldownStore) Active(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.m[symbol]
	if !ok {
		return false
	}
	if !s.now().Before(expires) {
		delete(s.m, symbol)
		return false
	}
	return true
}

// Status returns the remaining cooldown seconds per symbol. Diagnostic
// read with no side effect on live records.
func (s *CooldownStore) Status() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64)
	now := s.now()
	for symbol, expires := range s.m {
		if remaining := expires.Sub(now); remaining > 0 {
			out[symbol] = remaining.Seconds()
		}
	}
	return out
}
