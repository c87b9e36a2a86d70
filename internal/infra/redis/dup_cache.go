package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/metrics"
)

var _ repository.DuplicateIndex = (*DupCache)(nil)

const dupKeyPrefix = "dup:"

// DupCache is a read-through cache in front of the durable duplicate index.
// The inner index stays authoritative for the first-writer-wins race; the
// cache only accelerates the Lookup on the hot path of large syncs. A cache
// failure degrades to the inner index, never to a wrong answer.
type DupCache struct {
	inner repository.DuplicateIndex
	cli   RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewDupCache(inner repository.DuplicateIndex, cli RedisClient, ttl time.Duration, logger *zerolog.Logger) *DupCache {
	l := logger.With().Str("component", "DupCache").Logger()
	return &DupCache{inner: inner, cli: cli, ttl: ttl, log: &l}
}

func (c *DupCache) Lookup(ctx context.Context, contentHash string) (*repository.DuplicateEntry, error) {
	raw, err := c.cli.Get(ctx, dupKeyPrefix+contentHash)
	switch {
	case err == nil:
		var entry repository.DuplicateEntry
		if jsonErr := json.Unmarshal([]byte(raw), &entry); jsonErr == nil {
			metrics.IncDupCacheLookup("hit")
			return &entry, nil
		}
		// Unreadable cache value: fall through to the inner index.
	case errors.Is(err, redis.Nil):
		metrics.IncDupCacheLookup("miss")
	default:
		metrics.IncDupCacheLookup("error")
		c.log.Warn().Err(err).Msg("dup cache lookup failed, using durable index")
	}

	entry, err := c.inner.Lookup(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, entry)
	return entry, nil
}

func (c *DupCache) Record(ctx context.Context, contentHash, locator, taskID string) (*repository.DuplicateEntry, bool, error) {
	entry, created, err := c.inner.Record(ctx, contentHash, locator, taskID)
	if err != nil {
		return nil, false, err
	}
	c.fill(ctx, entry)
	return entry, created, nil
}

// fill writes the winning entry with SetNX so a racing fill can never
// replace the winner already cached.
func (c *DupCache) fill(ctx context.Context, entry *repository.DuplicateEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if _, err := c.cli.SetNX(ctx, dupKeyPrefix+entry.ContentHash, string(raw), c.ttl); err != nil {
		c.log.Warn().Err(err).Str("hash", entry.ContentHash).Msg("dup cache fill failed")
	}
}
