package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Store keeps one token bucket per key. Buckets idle for longer than their
// window are dropped by Cleanup (a refilled bucket carries no state), and
// when MaxEntries is reached the least recently seen bucket is evicted.
type Store struct {
	mu           sync.Mutex
	entries      map[string]*list.Element
	lru          *list.List // front = most recently seen
	maxEntries   int
	cleanupEvery time.Duration
	now          func() time.Time
}

type storeEntry struct {
	key      string
	lim      *rate.Limiter
	idleTTL  time.Duration
	lastSeen time.Time
}

type StoreOption func(*Store)

// WithMaxEntries caps the number of buckets; n <= 0 keeps the default.
func WithMaxEntries(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries:      make(map[string]*list.Element),
		lru:          list.New(),
		maxEntries:   100_000,
		cleanupEvery: time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Allow takes one token from the bucket for key, creating it full
// (limit tokens, refilling limit per window) on first use.
func (s *Store) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 || window <= 0 {
		return Decision{Allowed: true}
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent := s.touch(key, limit, window, now)

	if ent.lim.AllowN(now, 1) {
		return Decision{Allowed: true, Remaining: int(ent.lim.TokensAt(now))}
	}

	r := ent.lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return Decision{Allowed: false, RetryAfter: wait}
}

func (s *Store) touch(key string, limit int, window time.Duration, now time.Time) *storeEntry {
	if el, ok := s.entries[key]; ok {
		ent := el.Value.(*storeEntry)
		ent.lastSeen = now
		s.lru.MoveToFront(el)
		return ent
	}

	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.cleanupLocked(now)
		for len(s.entries) >= s.maxEntries {
			s.removeLocked(s.lru.Back())
		}
	}

	ent := &storeEntry{
		key:      key,
		lim:      rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
		idleTTL:  window,
		lastSeen: now,
	}
	s.entries[key] = s.lru.PushFront(ent)
	return ent
}

func (s *Store) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	ent := s.lru.Remove(el).(*storeEntry)
	delete(s.entries, ent.key)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup drops buckets idle longer than their window.
func (s *Store) Cleanup() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked(now)
}

func (s *Store) cleanupLocked(now time.Time) int {
	removed := 0
	// ttls differ per class, so every bucket is checked
	for el := s.lru.Back(); el != nil; {
		prev := el.Prev()
		ent := el.Value.(*storeEntry)
		if now.Sub(ent.lastSeen) > ent.idleTTL {
			s.removeLocked(el)
			removed++
		}
		el = prev
	}
	return removed
}

// StartJanitor runs Cleanup periodically until ctx is cancelled.
func (s *Store) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}
	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
