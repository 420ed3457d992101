package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a volatile Store backed by two maps plus a revocation set.
// It is intended for tests and ephemeral deployments; nothing survives a
// restart. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	revoked map[string]time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		revoked: make(map[string]time.Time),
	}
}

// CreateUser implements Store. The caller's id is honored when present
// (upserting any existing record under it); otherwise a fresh id is
// assigned.
func (m *Memory) CreateUser(_ context.Context, user User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	canonical := CanonicalEmail(user.Email)
	if existingID, ok := m.byEmail[canonical]; ok && existingID != user.ID {
		return nil, ErrEmailTaken
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Profile == nil {
		user.Profile = map[string]any{}
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	// Upsert on id collision: the email index must follow the record.
	if prev, ok := m.byID[user.ID]; ok {
		delete(m.byEmail, CanonicalEmail(prev.Email))
	}

	m.byID[user.ID] = user.Clone()
	m.byEmail[canonical] = user.ID

	return user.Clone(), nil
}

// GetUserByID implements Store.
func (m *Memory) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.byID[id].Clone(), nil
}

// GetUserByEmail implements Store. The lookup is case-insensitive.
func (m *Memory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[CanonicalEmail(email)]
	if !ok {
		return nil, nil
	}
	return m.byID[id].Clone(), nil
}

// UpdateUser implements Store. A changed email repoints the email index
// in the same critical section, so the index never dangles.
func (m *Memory) UpdateUser(_ context.Context, id string, update Update) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	if update.Email != nil {
		newCanonical := CanonicalEmail(*update.Email)
		if ownerID, taken := m.byEmail[newCanonical]; taken && ownerID != id {
			return nil, ErrEmailTaken
		}
		oldCanonical := CanonicalEmail(current.Email)
		if oldCanonical != newCanonical {
			delete(m.byEmail, oldCanonical)
			m.byEmail[newCanonical] = id
		}
	}

	next := applyUpdate(current, update, time.Now())
	m.byID[id] = next

	return next.Clone(), nil
}

// DeleteUser implements Store. Deleting an absent user returns false
// rather than an error.
func (m *Memory) DeleteUser(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[id]
	if !ok {
		return false, nil
	}

	delete(m.byEmail, CanonicalEmail(current.Email))
	delete(m.byID, id)
	return true, nil
}

// InvalidateToken implements Store. Entries whose token has already
// expired are pruned opportunistically on every write, so the set stays
// bounded by the number of live tokens.
func (m *Memory) InvalidateToken(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.pruneRevokedLocked(now)
	m.revoked[tokenID] = now.Add(ttl)
	return nil
}

// IsTokenInvalidated implements Store.
func (m *Memory) IsTokenInvalidated(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	deadline, ok := m.revoked[tokenID]
	if !ok {
		return false, nil
	}
	// A revocation past its deadline covers an already-expired token;
	// reporting it as not-revoked is harmless.
	return time.Now().Before(deadline), nil
}

// Clear implements Store.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID = make(map[string]*User)
	m.byEmail = make(map[string]string)
	m.revoked = make(map[string]time.Time)
	return nil
}

func (m *Memory) pruneRevokedLocked(now time.Time) {
	for id, deadline := range m.revoked {
		if now.After(deadline) {
			delete(m.revoked, id)
		}
	}
}
