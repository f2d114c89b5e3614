package cache

import (
	"context"
	"time"
)

const revokedPrefix = "auth:revoked:"

// Denylist records revoked token ids until the token would have expired anyway.
type Denylist struct {
	redis *Redis
}

func NewDenylist(r *Redis) *Denylist {
	return &Denylist{redis: r}
}

// Revoke reports whether this call was the one that revoked jti. Without Redis
// nothing is tracked and every call counts as first.
func (d *Denylist) Revoke(ctx context.Context, jti string, until time.Time) (bool, error) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return true, nil
	}
	if !d.redis.Available() {
		return true, nil
	}
	return d.redis.SetIfNotExists(ctx, revokedPrefix+jti, "1", ttl)
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return d.redis.Exists(ctx, revokedPrefix+jti)
}
