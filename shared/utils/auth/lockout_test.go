package utils

import (
	"context"
	"testing"
	"time"
)

func newTestTracker(t *testing.T, config LockoutConfig) *LockoutTracker {
	t.Helper()
	// Zero cleanup interval keeps the janitor goroutine out of tests.
	return NewLockoutTracker(NewMemoryLockoutStore(0), config)
}

func TestLockoutBelowThreshold(t *testing.T) {
	tracker := newTestTracker(t, LockoutConfig{MaxFailures: 5, Window: time.Minute, BaseDuration: time.Minute, BackoffCap: 4})
	ctx := context.Background()
	key := LockoutKey("203.0.113.7", "gary@example.com")

	for i := 0; i < 4; i++ {
		if err := tracker.RecordFailure(ctx, key); err != nil {
			t.Fatalf("record failure %d: %v", i+1, err)
		}
	}

	locked, _, err := tracker.IsLocked(ctx, key)
	if err != nil {
		t.Fatalf("is locked: %v", err)
	}
	if locked {
		t.Fatal("four failures out of five must not lock")
	}
}

func TestLockoutAtThreshold(t *testing.T) {
	tracker := newTestTracker(t, LockoutConfig{MaxFailures: 5, Window: time.Minute, BaseDuration: time.Minute, BackoffCap: 4})
	ctx := context.Background()
	key := LockoutKey("203.0.113.7", "gary@example.com")

	for i := 0; i < 5; i++ {
		if err := tracker.RecordFailure(ctx, key); err != nil {
			t.Fatalf("record failure %d: %v", i+1, err)
		}
	}

	locked, remaining, err := tracker.IsLocked(ctx, key)
	if err != nil {
		t.Fatalf("is locked: %v", err)
	}
	if !locked {
		t.Fatal("fifth failure must lock the key")
	}
	// Five failures against a cap of 4 lock for 4x the base duration.
	if remaining <= 3*time.Minute || remaining > 4*time.Minute {
		t.Fatalf("expected remaining within (3m, 4m], got %v", remaining)
	}
}

func TestLockoutDurationScalesWithFailureCount(t *testing.T) {
	tracker := newTestTracker(t, LockoutConfig{MaxFailures: 5, Window: time.Hour, BaseDuration: time.Minute, BackoffCap: 10})
	ctx := context.Background()
	key := LockoutKey("203.0.113.7", "gary@example.com")

	for i := 0; i < 5; i++ {
		if err := tracker.RecordFailure(ctx, key); err != nil {
			t.Fatalf("record failure %d: %v", i+1, err)
		}
	}

	// With the cap above the threshold, the first lock already reflects
	// the full failure count: 5 failures lock for 5x the base duration.
	locked, remaining, err := tracker.IsLocked(ctx, key)
	if err != nil {
		t.Fatalf("is locked: %v", err)
	}
	if !locked {
		t.Fatal("fifth failure must lock the key")
	}
	if remaining <= 4*time.Minute || remaining > 5*time.Minute {
		t.Fatalf("expected remaining within (4m, 5m], got %v", remaining)
	}
}

func TestLockoutBackoffGrowsAndCaps(t *testing.T) {
	config := LockoutConfig{MaxFailures: 2, Window: time.Hour, BaseDuration: time.Minute, BackoffCap: 3}
	tracker := newTestTracker(t, config)
	ctx := context.Background()
	key := LockoutKey("203.0.113.7", "gary@example.com")

	var previous time.Duration
	// Failures 2 and 3 carry multipliers 2x and 3x; failures 4 and 5 stay
	// at the cap.
	for i := 0; i < 5; i++ {
		if err := tracker.RecordFailure(ctx, key); err != nil {
			t.Fatalf("record failure %d: %v", i+1, err)
		}
		locked, remaining, err := tracker.IsLocked(ctx, key)
		if err != nil {
			t.Fatalf("is locked: %v", err)
		}
		if i == 0 {
			if locked {
				t.Fatal("first failure should not lock yet")
			}
			continue
		}
		if !locked {
			t.Fatalf("failure %d should lock", i+1)
		}
		if remaining > time.Duration(config.BackoffCap)*config.BaseDuration {
			t.Fatalf("lock duration %v exceeds the cap", remaining)
		}
		if i == 2 && remaining <= previous {
			t.Fatalf("lock duration should grow: %v then %v", previous, remaining)
		}
		previous = remaining
	}
}

func TestLockoutWindowResetsCounter(t *testing.T) {
	store := NewMemoryLockoutStore(0)
	tracker := NewLockoutTracker(store, LockoutConfig{MaxFailures: 3, Window: time.Minute, BaseDuration: time.Minute, BackoffCap: 4})
	ctx := context.Background()
	key := LockoutKey("203.0.113.7", "gary@example.com")

	for i := 0; i < 2; i++ {
		if err := tracker.RecordFailure(ctx, key); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	// Age the record past the window; the next failure starts a new run.
	record, err := store.Get(ctx, key)
	if err != nil || record == nil {
		t.Fatalf("expected record, got %v (%v)", record, err)
	}
	record.FirstFailure = time.Now().Add(-2 * time.Minute)
	if err := store.Put(ctx, key, record, time.Minute); err != nil {
		t.Fatalf("put aged record: %v", err)
	}

	if err := tracker.RecordFailure(ctx, key); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	record, err = store.Get(ctx, key)
	if err != nil || record == nil {
		t.Fatalf("expected record, got %v (%v)", record, err)
	}
	if record.Count != 1 {
		t.Fatalf("stale window should reset the counter, got count %d", record.Count)
	}
}

func TestLockoutClear(t *testing.T) {
	tracker := newTestTracker(t, LockoutConfig{MaxFailures: 1, Window: time.Minute, BaseDuration: time.Minute, BackoffCap: 4})
	ctx := context.Background()
	key := LockoutKey("203.0.113.7", "gary@example.com")

	if err := tracker.RecordFailure(ctx, key); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if locked, _, _ := tracker.IsLocked(ctx, key); !locked {
		t.Fatal("key should be locked")
	}

	if err := tracker.Clear(ctx, key); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if locked, _, _ := tracker.IsLocked(ctx, key); locked {
		t.Fatal("cleared key should not be locked")
	}
}

func TestLockoutKeysAreIndependent(t *testing.T) {
	tracker := newTestTracker(t, LockoutConfig{MaxFailures: 1, Window: time.Minute, BaseDuration: time.Minute, BackoffCap: 4})
	ctx := context.Background()

	if err := tracker.RecordFailure(ctx, LockoutKey("203.0.113.7", "gary@example.com")); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	// Same address, different account: not locked.
	if locked, _, _ := tracker.IsLocked(ctx, LockoutKey("203.0.113.7", "other@example.com")); locked {
		t.Fatal("different email behind the same IP must not be locked")
	}
	// Same account, different address: not locked.
	if locked, _, _ := tracker.IsLocked(ctx, LockoutKey("198.51.100.23", "gary@example.com")); locked {
		t.Fatal("same email from a different IP must not be locked")
	}
}

func TestMemoryLockoutStoreTTL(t *testing.T) {
	store := NewMemoryLockoutStore(0)
	ctx := context.Background()

	record := &LockoutRecord{Count: 3, FirstFailure: time.Now(), LastFailure: time.Now()}
	if err := store.Put(ctx, "k", record, -time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatal("expired entry should read as absent")
	}
}
