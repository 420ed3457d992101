package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemory()
	})
}

func TestMemoryReturnsClones(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.CreateUser(ctx, User{
		Email:   "alice@example.com",
		Profile: map[string]any{"plan": "free"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating a returned record must not leak into the store.
	created.Email = "evil@example.com"
	created.Profile["plan"] = "stolen"

	stored, err := m.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Email != "alice@example.com" {
		t.Fatalf("email mutated through returned pointer: %q", stored.Email)
	}
	if stored.Profile["plan"] != "free" {
		t.Fatalf("profile mutated through returned pointer: %+v", stored.Profile)
	}
}

func TestMemoryRevocationExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.InvalidateToken(ctx, "jti-ttl", 10*time.Millisecond); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	revoked, err := m.IsTokenInvalidated(ctx, "jti-ttl")
	if err != nil || !revoked {
		t.Fatalf("before deadline: (%v, %v)", revoked, err)
	}

	time.Sleep(20 * time.Millisecond)

	revoked, err = m.IsTokenInvalidated(ctx, "jti-ttl")
	if err != nil || revoked {
		t.Fatalf("after deadline: (%v, %v)", revoked, err)
	}

	// The next write prunes the stale entry.
	if err := m.InvalidateToken(ctx, "jti-other", time.Hour); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	m.mu.RLock()
	_, stale := m.revoked["jti-ttl"]
	m.mu.RUnlock()
	if stale {
		t.Fatal("expired entry not pruned on write")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.CreateUser(ctx, User{Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				now := time.Now()
				if _, err := m.UpdateUser(ctx, created.ID, Update{LastLoginAt: &now}); err != nil {
					t.Errorf("update: %v", err)
					return
				}
				if _, err := m.GetUserByEmail(ctx, "alice@example.com"); err != nil {
					t.Errorf("lookup: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	stored, err := m.GetUserByID(ctx, created.ID)
	if err != nil || stored == nil {
		t.Fatalf("final lookup: (%v, %v)", stored, err)
	}
	if stored.LastLoginAt == nil {
		t.Fatal("expected LastLoginAt after updates")
	}
}
