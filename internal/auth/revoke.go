package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList is a redis-backed denylist of token JTIs. Logout revokes
// both tokens of a pair; entries expire with the token itself so the list
// stays bounded.

type RevocationList struct {
	rdb    *redis.Client
	prefix string
}

func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb, prefix: "auth:revoked:"}
}

func (r *RevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if r.rdb == nil {
		return errors.New("auth: redis client is nil")
	}
	if jti == "" {
		return errors.New("auth: jti is required")
	}
	if ttl <= 0 {
		// Token already expired; nothing to deny.
		return nil
	}
	return r.rdb.Set(ctx, r.prefix+jti, 1, ttl).Err()
}

func (r *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
