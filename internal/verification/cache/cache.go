// Package cache provides an optional fast-path check for consumed nullifiers
// in front of the ledger. It is an optimization only; the ledger's unique
// constraint remains authoritative.
package cache

import (
	"context"
	"time"

	platformredis "proof-gateway/internal/platform/redis"
)

// NullifierCache answers "was this nullifier already consumed" cheaply. A
// miss is inconclusive; a hit short-circuits before the ledger round trip.
type NullifierCache interface {
	Seen(ctx context.Context, nullifier string) (bool, error)
	MarkSeen(ctx context.Context, nullifier string) error
}

// Redis-backed implementation. Entries carry a TTL: nullifiers are consumed
// forever, but the cache only needs to absorb bursts of replays.
type Redis struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedis(client *platformredis.Client) *Redis {
	return &Redis{client: client, ttl: 24 * time.Hour}
}

func key(nullifier string) string { return "nullifier:" + nullifier }

func (c *Redis) Seen(ctx context.Context, nullifier string) (bool, error) {
	n, err := c.client.Exists(ctx, key(nullifier)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Redis) MarkSeen(ctx context.Context, nullifier string) error {
	return c.client.Set(ctx, key(nullifier), "1", c.ttl).Err()
}
