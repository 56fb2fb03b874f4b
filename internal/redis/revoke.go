package redisclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionRevoker invalidates a user's outstanding session tokens.
// Revocation records a cutoff instant; tokens issued at or before the
// cutoff are rejected. The entry expires once every token signed before
// it would have expired on its own.
type SessionRevoker interface {
	Revoke(ctx context.Context, userID uuid.UUID) error
	RevokedAt(ctx context.Context, userID uuid.UUID) (time.Time, error)
}

type redisSessionRevoker struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionRevoker creates a revocation store. ttl must be at least the
// session token lifetime.
func NewSessionRevoker(client *redis.Client, ttl time.Duration) SessionRevoker {
	return &redisSessionRevoker{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func revokeKey(userID uuid.UUID) string { return "session:revoked:" + userID.String() }

func (r *redisSessionRevoker) Revoke(ctx context.Context, userID uuid.UUID) error {
	cutoff := r.now().Unix()
	if err := r.client.Set(ctx, revokeKey(userID), strconv.FormatInt(cutoff, 10), r.ttl).Err(); err != nil {
		return fmt.Errorf("record session revocation: %w", err)
	}
	return nil
}

// RevokedAt returns the revocation cutoff, or the zero time when the
// user has no active revocation.
func (r *redisSessionRevoker) RevokedAt(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	raw, err := r.client.Get(ctx, revokeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load session revocation: %w", err)
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session revocation: %w", err)
	}
	return time.Unix(unix, 0), nil
}
