// Package tokendeny tracks revoked session tokens in Redis.
//
// Sessions are stateless JWTs, so revocation is recorded out of band in two
// forms: a per-token entry keyed by JWT ID (logout), and a per-account stamp
// that invalidates every token issued before a point in time (password change,
// account deletion).
package tokendeny

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records and checks revoked session tokens.
type Denylist interface {
	// DenyToken revokes a single token by its JWT ID until it would have
	// expired anyway.
	DenyToken(ctx context.Context, jti string, ttl time.Duration) error
	// DenyAccount revokes every token of the account issued before at.
	DenyAccount(ctx context.Context, accountID int64, at time.Time, ttl time.Duration) error
	// IsDenied reports whether the token identified by jti, belonging to
	// accountID and issued at issuedAt, has been revoked.
	IsDenied(ctx context.Context, jti string, accountID int64, issuedAt time.Time) (bool, error)
}

// Redis is a Denylist backed by Redis keys with TTLs matched to token
// lifetimes, so entries vanish once the tokens they block are expired.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed denylist.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "tokendeny"
	}

	return &Redis{client: client, prefix: prefix}
}

// DenyToken marks one JWT ID as revoked.
func (r *Redis) DenyToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to deny
	}

	key := r.prefix + ":jti:" + jti
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("tokendeny: set %q: %w", key, err)
	}

	return nil
}

// DenyAccount stamps the account so that tokens issued before at are rejected.
func (r *Redis) DenyAccount(ctx context.Context, accountID int64, at time.Time, ttl time.Duration) error {
	key := r.accountKey(accountID)
	stamp := strconv.FormatInt(at.UnixNano(), 10)

	// Keep the latest stamp if several revocations race.
	prev, err := r.client.Get(ctx, key).Result()
	if err == nil {
		if prevNano, perr := strconv.ParseInt(prev, 10, 64); perr == nil && prevNano >= at.UnixNano() {
			return nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("tokendeny: get %q: %w", key, err)
	}

	if err := r.client.Set(ctx, key, stamp, ttl).Err(); err != nil {
		return fmt.Errorf("tokendeny: set %q: %w", key, err)
	}

	return nil
}

// IsDenied checks both the per-token entry and the per-account stamp.
func (r *Redis) IsDenied(ctx context.Context, jti string, accountID int64, issuedAt time.Time) (bool, error) {
	if jti != "" {
		n, err := r.client.Exists(ctx, r.prefix+":jti:"+jti).Result()
		if err != nil {
			return false, fmt.Errorf("tokendeny: exists: %w", err)
		}
		if n > 0 {
			return true, nil
		}
	}

	stamp, err := r.client.Get(ctx, r.accountKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("tokendeny: get account stamp: %w", err)
	}

	nano, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return false, fmt.Errorf("tokendeny: parse account stamp: %w", err)
	}

	return issuedAt.UnixNano() < nano, nil
}

func (r *Redis) accountKey(accountID int64) string {
	return r.prefix + ":acct:" + strconv.FormatInt(accountID, 10)
}
