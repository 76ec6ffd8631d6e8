package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/userhub/user-directory/internal/core/domain"
	"github.com/userhub/user-directory/internal/core/ports"
)

const cacheTTL = time.Minute

// CachedUserRepository is a read-through cache in front of a UserRepository.
// Point lookups (by id / by email) are served from Redis when possible;
// every write invalidates the affected keys. Cache failures never fail the
// request: the call falls through to the inner repository.
//
// Entries expire after cacheTTL, so invalidation is best effort.
type CachedUserRepository struct {
	inner  ports.UserRepository
	client *redis.Client
	log    zerolog.Logger
}

func NewCachedUserRepository(inner ports.UserRepository, client *redis.Client, log zerolog.Logger) *CachedUserRepository {
	return &CachedUserRepository{inner: inner, client: client, log: log}
}

func idKey(id string) string       { return "user:id:" + id }
func emailKey(email string) string { return "user:email:" + email }

func (r *CachedUserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	return r.inner.Insert(ctx, user)
}

func (r *CachedUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if u := r.get(ctx, idKey(id)); u != nil {
		return u, nil
	}
	u, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.set(ctx, u)
	return u, nil
}

func (r *CachedUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u := r.get(ctx, emailKey(email)); u != nil {
		return u, nil
	}
	u, err := r.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	r.set(ctx, u)
	return u, nil
}

// List results are never cached: page contents shift with every write and
// the TTL window would make the pagination metadata visibly inconsistent.
func (r *CachedUserRepository) List(ctx context.Context, skip, take int) ([]*domain.User, int64, error) {
	return r.inner.List(ctx, skip, take)
}

func (r *CachedUserRepository) ListByUsername(ctx context.Context, pattern string, skip, take int) ([]*domain.User, int64, error) {
	return r.inner.ListByUsername(ctx, pattern, skip, take)
}

func (r *CachedUserRepository) UpdateProfile(ctx context.Context, id, name, username string) error {
	if err := r.inner.UpdateProfile(ctx, id, name, username); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	if err := r.inner.UpdateRole(ctx, id, role); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepository) get(ctx context.Context, key string) *domain.User {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
		}
		return nil
	}

	var e cacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("user cache entry corrupt")
		r.del(ctx, key)
		return nil
	}
	u := domain.User(e)
	return &u
}

func (r *CachedUserRepository) set(ctx context.Context, u *domain.User) {
	raw, err := json.Marshal(cacheEntry(*u))
	if err != nil {
		return
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, idKey(u.ID), raw, cacheTTL)
	pipe.Set(ctx, emailKey(u.Email), raw, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn().Err(err).Str("user_id", u.ID).Msg("user cache write failed")
	}
}

// invalidate removes both keys for the record. The email is recovered from
// the cached id entry when present; otherwise the email key is left to
// expire with its TTL.
func (r *CachedUserRepository) invalidate(ctx context.Context, id string) {
	if u := r.get(ctx, idKey(id)); u != nil {
		r.del(ctx, emailKey(u.Email))
	}
	r.del(ctx, idKey(id))
}

func (r *CachedUserRepository) del(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("user cache delete failed")
	}
}

// cacheEntry mirrors domain.User but serialises the password hash, which
// domain.User deliberately excludes from JSON. Login reads through this
// path, so the cached record must keep the hash; it still never leaves the
// repository boundary in API responses.
type cacheEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
