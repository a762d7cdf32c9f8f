// Package cache provides a Redis-backed cache for retrieval results with
// singleflight collapse of concurrent identical queries. The whole cache is
// invalidated whenever the corpus is reloaded.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/textanasearch/textana/internal/retriever"
	"github.com/textanasearch/textana/pkg/config"
	pkgredis "github.com/textanasearch/textana/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "retrieve:"

// Result is the cached payload of one retrieval query.
type Result struct {
	Mode      string                     `json:"mode"`
	Keywords  []string                   `json:"keywords"`
	TotalHits int                        `json:"total_hits"`
	Results   []retriever.ScoredDocument `json:"results"`
}

// QueryCache caches retrieval results in Redis.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache over an open Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached result for the query, if present.
func (c *QueryCache) Get(ctx context.Context, mode string, keywords []string, limit int) (*Result, bool) {
	key := c.buildKey(mode, keywords, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &result, true
}

// Set stores a result under the query's key with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, mode string, keywords []string, limit int, result *Result) {
	key := c.buildKey(mode, keywords, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes, caches, and returns a
// fresh one. Concurrent identical queries are collapsed into one compute.
// The bool reports whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	mode string,
	keywords []string,
	limit int,
	computeFn func() (*Result, error),
) (*Result, bool, error) {
	if result, ok := c.Get(ctx, mode, keywords, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(mode, keywords, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, mode, keywords, limit); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, mode, keywords, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Result), false, nil
}

// Invalidate removes every cached retrieval result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counters.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the normalized query. Keyword order does not change the
// result, so keywords are sorted before hashing.
func (c *QueryCache) buildKey(mode string, keywords []string, limit int) string {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		normalized = append(normalized, strings.ToLower(kw))
	}
	sort.Strings(normalized)
	raw := fmt.Sprintf("%s|%s|limit=%d", strings.ToLower(mode), strings.Join(normalized, ","), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
