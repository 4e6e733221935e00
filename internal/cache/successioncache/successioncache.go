// Package successioncache is a Redis-backed replica of a domain's
// succession index (internal/succession), letting cmd/plannerd serve
// successions computed by one process to callers on another without
// recomputing Build on every request. Grounded on the teacher's
// internal/cache query-cache API shape (NewQueryCache(client, ttl), a
// cache-aside Get/Set/GetOrSet triple) — the teacher repo declares this
// API only in its test files with no implementation behind it, so the
// test-defined signatures are the grounding source rather than a .go file.
package successioncache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"contextualplanner/internal/succession"
)

const defaultTTL = 60 * time.Second

// Cache wraps a redis.Client the way the teacher's QueryCache does,
// scoping every key under a fixed prefix so it can share a Redis instance
// with unrelated callers.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a Cache. A non-positive ttl falls back to 60s, matching the
// teacher's NewQueryCache default.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

type snapshot struct {
	Actions map[string][]string `json:"actions"`
}

func (c *Cache) key(domainID string) string {
	return "succession:" + domainID
}

// Get returns the cached action-to-successor-action-id map for domainID,
// or ok=false on a cache miss.
func (c *Cache) Get(ctx context.Context, domainID string) (map[string][]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(domainID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false, err
	}
	return snap.Actions, true, nil
}

// Set recomputes the aggregated successions (spec §4.8's invariant-#2
// "succ(A)") for every id in actionIDs from sc and stores them under
// domainID.
func (c *Cache) Set(ctx context.Context, domainID string, sc *succession.Cache, actionIDs []string) error {
	snap := snapshot{Actions: make(map[string][]string, len(actionIDs))}
	for _, id := range actionIDs {
		succ := sc.AggregatedActionSuccessions(id)
		ids := make([]string, 0, len(succ))
		for sid := range succ {
			ids = append(ids, sid)
		}
		sort.Strings(ids)
		snap.Actions[id] = ids
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(domainID), raw, c.ttl).Err()
}

// Delete evicts domainID's cached successions, used when a domain's action
// set changes and the cache would otherwise serve a stale index.
func (c *Cache) Delete(ctx context.Context, domainID string) error {
	return c.client.Del(ctx, c.key(domainID)).Err()
}

// GetOrBuild returns the cached successions for domainID, computing and
// storing them from sc/actionIDs on a miss — the cache-aside pattern
// grounded on the teacher's QueryCache.GetOrSet.
func (c *Cache) GetOrBuild(ctx context.Context, domainID string, sc *succession.Cache, actionIDs []string) (map[string][]string, error) {
	if cached, ok, err := c.Get(ctx, domainID); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}
	if err := c.Set(ctx, domainID, sc, actionIDs); err != nil {
		return nil, err
	}
	cached, _, err := c.Get(ctx, domainID)
	return cached, err
}
