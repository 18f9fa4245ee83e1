package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"go.uber.org/zap"
)

// DefaultCacheTTL keeps repeated queries off Elasticsearch for a short while
const DefaultCacheTTL = 30 * time.Second

// ResultCache stores serialized results. cache.RedisClient implements it.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedClient serves repeated searches from Redis. Index calls pass through.
type CachedClient struct {
	Engine
	cache ResultCache
	ttl   time.Duration
}

// NewCachedClient wraps engine. A nil cache returns engine unwrapped.
func NewCachedClient(engine Engine, cache ResultCache, ttl time.Duration) Engine {
	if cache == nil {
		return engine
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedClient{Engine: engine, cache: cache, ttl: ttl}
}

func cacheKey(prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	return fmt.Sprintf("search:%s:%x", prefix, sha256.Sum256(data))
}

// SearchTweets is cached per viewer since visibility filtering depends on it
func (c *CachedClient) SearchTweets(ctx context.Context, q TweetQuery) (*TweetResult, error) {
	key := cacheKey("tweets", q)
	var result TweetResult
	if c.lookup(ctx, key, &result) {
		return &result, nil
	}

	fresh, err := c.Engine.SearchTweets(ctx, q)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

func (c *CachedClient) SearchUsers(ctx context.Context, query string, limit, offset int) (*UserResult, error) {
	key := cacheKey("users", []interface{}{query, limit, offset})
	var result UserResult
	if c.lookup(ctx, key, &result) {
		return &result, nil
	}

	fresh, err := c.Engine.SearchUsers(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

func (c *CachedClient) lookup(ctx context.Context, key string, into interface{}) bool {
	cached, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Log.Debug("Search cache read failed", zap.Error(err))
		return false
	}
	if cached == "" {
		return false
	}
	if err := json.Unmarshal([]byte(cached), into); err != nil {
		return false
	}
	metrics.Get().SearchRequestsTotal.WithLabelValues("cache", "hit").Inc()
	return true
}

func (c *CachedClient) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.cache.SetEx(ctx, key, data, c.ttl); err != nil {
		logger.Log.Debug("Search cache write failed", zap.Error(err))
	}
}
