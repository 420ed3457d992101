package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "ak"

// ErrStoreUnavailable wraps backend transport failures so callers can
// distinguish them from contract errors like ErrEmailTaken.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Redis is a Store backed by a remote Redis instance. User records are
// stored as JSON under per-id keys with a separate canonical-email index
// key, and revoked token ids live under TTL'd keys so the denylist
// prunes itself. Network timeout and retry policy belong to the injected
// client, not to this adapter.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps the given client. An empty prefix selects "ak".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) userKey(id string) string {
	return r.prefix + ":user:" + id
}

func (r *Redis) emailKey(canonical string) string {
	return r.prefix + ":email:" + canonical
}

func (r *Redis) revokedKey(tokenID string) string {
	return r.prefix + ":revoked:" + tokenID
}

// watchRetries bounds optimistic-transaction retries under contention.
const watchRetries = 4

// CreateUser implements Store. The email index key is claimed inside a
// WATCH transaction so two concurrent registrations of the same address
// cannot both succeed.
func (r *Redis) CreateUser(ctx context.Context, user User) (*User, error) {
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

	canonical := CanonicalEmail(user.Email)
	encoded, err := json.Marshal(&user)
	if err != nil {
		return nil, err
	}

	for i := 0; i < watchRetries; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			ownerID, err := tx.Get(ctx, r.emailKey(canonical)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil && ownerID != user.ID {
				return ErrEmailTaken
			}

			// Upsert: a record already under this id may index a
			// different email that must be released.
			var staleEmailKey string
			if prev, err := tx.Get(ctx, r.userKey(user.ID)).Bytes(); err == nil {
				var prevUser User
				if jsonErr := json.Unmarshal(prev, &prevUser); jsonErr == nil {
					if old := CanonicalEmail(prevUser.Email); old != canonical {
						staleEmailKey = r.emailKey(old)
					}
				}
			} else if !errors.Is(err, redis.Nil) {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if staleEmailKey != "" {
					pipe.Del(ctx, staleEmailKey)
				}
				pipe.Set(ctx, r.userKey(user.ID), encoded, 0)
				pipe.Set(ctx, r.emailKey(canonical), user.ID, 0)
				return nil
			})
			return err
		}, r.emailKey(canonical), r.userKey(user.ID))

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrEmailTaken) {
				return nil, ErrEmailTaken
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return user.Clone(), nil
	}

	return nil, fmt.Errorf("%w: transaction contention", ErrStoreUnavailable)
}

// GetUserByID implements Store. A missing row is (nil, nil), never an
// error.
func (r *Redis) GetUserByID(ctx context.Context, id string) (*User, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail implements Store.
func (r *Redis) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	id, err := r.client.Get(ctx, r.emailKey(CanonicalEmail(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return r.GetUserByID(ctx, id)
}

// UpdateUser implements Store. When the email changes, the index repoint
// and the record write share one transaction.
func (r *Redis) UpdateUser(ctx context.Context, id string, update Update) (*User, error) {
	var updated *User

	for i := 0; i < watchRetries; i++ {
		watchKeys := []string{r.userKey(id)}
		if update.Email != nil {
			watchKeys = append(watchKeys, r.emailKey(CanonicalEmail(*update.Email)))
		}

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, r.userKey(id)).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrUserNotFound
				}
				return err
			}

			var current User
			if err := json.Unmarshal(data, &current); err != nil {
				return err
			}

			var oldEmailKey, newEmailKey string
			if update.Email != nil {
				newCanonical := CanonicalEmail(*update.Email)
				ownerID, err := tx.Get(ctx, r.emailKey(newCanonical)).Result()
				if err != nil && !errors.Is(err, redis.Nil) {
					return err
				}
				if err == nil && ownerID != id {
					return ErrEmailTaken
				}
				if old := CanonicalEmail(current.Email); old != newCanonical {
					oldEmailKey = r.emailKey(old)
					newEmailKey = r.emailKey(newCanonical)
				}
			}

			next := applyUpdate(&current, update, time.Now())
			encoded, err := json.Marshal(next)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if oldEmailKey != "" {
					pipe.Del(ctx, oldEmailKey)
					pipe.Set(ctx, newEmailKey, id, 0)
				}
				pipe.Set(ctx, r.userKey(id), encoded, 0)
				return nil
			})
			if err != nil {
				return err
			}

			updated = next
			return nil
		}, watchKeys...)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrEmailTaken) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return updated, nil
	}

	return nil, fmt.Errorf("%w: transaction contention", ErrStoreUnavailable)
}

// DeleteUser implements Store.
func (r *Redis) DeleteUser(ctx context.Context, id string) (bool, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.userKey(id))
		pipe.Del(ctx, r.emailKey(CanonicalEmail(user.Email)))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return true, nil
}

// InvalidateToken implements Store. The key's TTL matches the token's
// remaining life, so Redis garbage-collects the entry the moment the
// revocation stops mattering.
func (r *Redis) InvalidateToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.revokedKey(tokenID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsTokenInvalidated implements Store.
func (r *Redis) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Clear implements Store. It scans only this adapter's prefix, so a
// shared Redis instance loses nothing else.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
