package utils

import (
	"context"
	"sync"
	"time"
)

// LockoutRecord is the per-key failure state tracked across login attempts.
type LockoutRecord struct {
	Count        int       `json:"count"`
	FirstFailure time.Time `json:"first_failure"`
	LastFailure  time.Time `json:"last_failure"`
	LockedUntil  time.Time `json:"locked_until"`
}

// LockoutStore persists lockout records. The in-memory implementation is
// fine for a single instance; the Redis-backed one in shared/utils/cache
// shares state across replicas.
type LockoutStore interface {
	Get(ctx context.Context, key string) (*LockoutRecord, error)
	Put(ctx context.Context, key string, record *LockoutRecord, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LockoutConfig tunes the failure threshold and the backoff curve
type LockoutConfig struct {
	MaxFailures  int
	Window       time.Duration
	BaseDuration time.Duration
	BackoffCap   int
}

// LockoutTracker counts authentication failures per key and locks the key
// once the threshold is reached inside the tracking window. Lock duration
// grows with the failure count up to a capped multiplier.
type LockoutTracker struct {
	store  LockoutStore
	config LockoutConfig
}

func NewLockoutTracker(store LockoutStore, config LockoutConfig) *LockoutTracker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.Window <= 0 {
		config.Window = 15 * time.Minute
	}
	if config.BaseDuration <= 0 {
		config.BaseDuration = 15 * time.Minute
	}
	if config.BackoffCap <= 0 {
		config.BackoffCap = 4
	}

	return &LockoutTracker{store: store, config: config}
}

// RecordFailure increments the counter for key, resetting it first when the
// tracking window has elapsed. Reaching the threshold locks the key for
// BaseDuration * min(attempts, BackoffCap).
func (t *LockoutTracker) RecordFailure(ctx context.Context, key string) error {
	now := time.Now()

	record, err := t.store.Get(ctx, key)
	if err != nil {
		return err
	}

	if record == nil || now.Sub(record.FirstFailure) > t.config.Window {
		record = &LockoutRecord{FirstFailure: now}
	}

	record.Count++
	record.LastFailure = now

	if record.Count >= t.config.MaxFailures {
		multiplier := record.Count
		if multiplier > t.config.BackoffCap {
			multiplier = t.config.BackoffCap
		}
		record.LockedUntil = now.Add(t.config.BaseDuration * time.Duration(multiplier))
	}

	ttl := t.config.Window
	if until := time.Until(record.LockedUntil); until > ttl {
		ttl = until
	}

	return t.store.Put(ctx, key, record, ttl)
}

// IsLocked reports whether key is currently locked and for how much longer.
func (t *LockoutTracker) IsLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	record, err := t.store.Get(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if record == nil {
		return false, 0, nil
	}

	remaining := time.Until(record.LockedUntil)
	if remaining <= 0 {
		return false, 0, nil
	}

	return true, remaining, nil
}

// Clear removes the record after a successful authentication so the next
// failure starts counting from zero.
func (t *LockoutTracker) Clear(ctx context.Context, key string) error {
	return t.store.Delete(ctx, key)
}

// MemoryLockoutStore is the process-local LockoutStore. A janitor goroutine
// drops stale records the same way the IP rate limiter does.
type MemoryLockoutStore struct {
	mutex   sync.RWMutex
	records map[string]memoryLockoutEntry
}

type memoryLockoutEntry struct {
	record    LockoutRecord
	expiresAt time.Time
}

func NewMemoryLockoutStore(cleanupInterval time.Duration) *MemoryLockoutStore {
	store := &MemoryLockoutStore{
		records: make(map[string]memoryLockoutEntry),
	}

	if cleanupInterval > 0 {
		go store.cleanup(cleanupInterval)
	}

	return store
}

func (s *MemoryLockoutStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		now := time.Now()
		for key, entry := range s.records {
			if now.After(entry.expiresAt) {
				delete(s.records, key)
			}
		}
		s.mutex.Unlock()
	}
}

func (s *MemoryLockoutStore) Get(_ context.Context, key string) (*LockoutRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.records[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, nil
	}

	record := entry.record
	return &record, nil
}

func (s *MemoryLockoutStore) Put(_ context.Context, key string, record *LockoutRecord, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[key] = memoryLockoutEntry{
		record:    *record,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryLockoutStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.records, key)
	return nil
}

// LockoutKey builds the tracking key for a login attempt. Keying on IP and
// email together keeps one shared NAT address from locking out every account
// behind it.
func LockoutKey(ip, email string) string {
	return ip + "|" + email
}
