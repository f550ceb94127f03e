package tally

import (
	"context"
	"fmt"
	"strconv"
	"time"

	platformredis "civitas/internal/platform/redis"
	id "civitas/pkg/domain"
)

// cacheTTL bounds staleness for cached tallies. Only completed elections are
// cached (their ledgers are immutable), so the TTL is a memory bound rather
// than a consistency mechanism.
const cacheTTL = 10 * time.Minute

// RedisCache holds per-election candidate counts in a redis hash. It is an
// optimization layered on recomputation: a miss or error always falls back
// to the full count, and cached values are only ever written from a full
// recomputation of a completed election.
type RedisCache struct {
	client *platformredis.Client
}

func NewRedisCache(client *platformredis.Client) *RedisCache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client}
}

func (c *RedisCache) key(electionID id.ElectionID) string {
	return "civitas:tally:" + electionID.String()
}

// Get returns the cached counts, or ok=false on miss or error.
func (c *RedisCache) Get(ctx context.Context, electionID id.ElectionID) (map[id.CandidateID]int, bool) {
	if c == nil {
		return nil, false
	}
	fields, err := c.client.HGetAll(ctx, c.key(electionID)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	counts := make(map[id.CandidateID]int, len(fields))
	for field, value := range fields {
		candidateID, err := id.ParseCandidateID(field)
		if err != nil {
			return nil, false
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, false
		}
		counts[candidateID] = n
	}
	return counts, true
}

// Put stores the counts. Best effort: cache errors never fail a tally.
func (c *RedisCache) Put(ctx context.Context, electionID id.ElectionID, counts map[id.CandidateID]int) {
	if c == nil || len(counts) == 0 {
		return
	}
	key := c.key(electionID)
	fields := make(map[string]string, len(counts))
	for candidateID, n := range counts {
		fields[candidateID.String()] = fmt.Sprintf("%d", n)
	}
	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, cacheTTL)
	_, _ = pipe.Exec(ctx)
}
