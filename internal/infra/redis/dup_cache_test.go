package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
)

// memDupIndex is a minimal in-memory durable index standing in for the
// Postgres-backed one.
type memDupIndex struct {
	mu      sync.Mutex
	entries map[string]*repository.DuplicateEntry
	lookups int
}

func newMemDupIndex() *memDupIndex {
	return &memDupIndex{entries: map[string]*repository.DuplicateEntry{}}
}

func (m *memDupIndex) Lookup(ctx context.Context, hash string) (*repository.DuplicateEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if e, ok := m.entries[hash]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memDupIndex) Record(ctx context.Context, hash, locator, taskID string) (*repository.DuplicateEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[hash]; ok {
		cp := *e
		return &cp, false, nil
	}
	e := &repository.DuplicateEntry{ContentHash: hash, StorageLocator: locator, TaskID: taskID}
	m.entries[hash] = e
	cp := *e
	return &cp, true, nil
}

func newTestCache(t *testing.T) (*DupCache, *memDupIndex) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	inner := newMemDupIndex()
	logger := zerolog.Nop()
	return NewDupCache(inner, NewClientFromRedis(cli), time.Minute, &logger), inner
}

func TestDupCacheMissThenHit(t *testing.T) {
	cache, inner := newTestCache(t)
	ctx := context.Background()

	_, _, err := cache.Record(ctx, "hash-a", "loc-a", "task-1")
	require.NoError(t, err)

	first, err := cache.Lookup(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, "loc-a", first.StorageLocator)

	lookupsBefore := inner.lookups
	second, err := cache.Lookup(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, lookupsBefore, inner.lookups, "second lookup must be served from cache")
}

func TestDupCacheUnknownHash(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Lookup(context.Background(), "never-stored")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDupCacheRecordFirstWriterWins(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	winner, created, err := cache.Record(ctx, "hash-b", "loc-first", "task-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "loc-first", winner.StorageLocator)

	loser, created, err := cache.Record(ctx, "hash-b", "loc-second", "task-2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "loc-first", loser.StorageLocator, "losing writer must adopt the winning locator")

	got, err := cache.Lookup(ctx, "hash-b")
	require.NoError(t, err)
	assert.Equal(t, "loc-first", got.StorageLocator)
}

func TestDupCacheDegradesWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	inner := newMemDupIndex()
	logger := zerolog.Nop()
	cache := NewDupCache(inner, NewClientFromRedis(cli), time.Minute, &logger)

	ctx := context.Background()
	_, _, err := cache.Record(ctx, "hash-c", "loc-c", "task-1")
	require.NoError(t, err)

	mr.Close() // cache backend gone, durable index still answers

	got, err := cache.Lookup(ctx, "hash-c")
	require.NoError(t, err)
	assert.Equal(t, "loc-c", got.StorageLocator)
}
