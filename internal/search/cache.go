package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"time"

	"rental-marketplace/internal/common/database"
	"rental-marketplace/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "search:"

// CachedSearcher serves repeated requests from Redis until the entry expires
// or Invalidate is called.
type CachedSearcher struct {
	next   Searcher
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSearcher(next Searcher, rdb redis.UniversalClient, ttl time.Duration, log logger.Logger) *CachedSearcher {
	return &CachedSearcher{next: next, rdb: rdb, ttl: ttl, logger: log}
}

// CacheKey is stable for equal requests.
func CacheKey(req *Request) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return cachePrefix + "v1:" + hex.EncodeToString(sum[:16])
}

func (c *CachedSearcher) Search(ctx context.Context, req *Request) (*Result, error) {
	key := CacheKey(req)
	log := c.logger.WithContext(ctx)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		log.Warn("discarding undecodable search cache entry", map[string]interface{}{"key": key})
	case !stderrors.Is(err, redis.Nil):
		log.Warn("search cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	result, err := c.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			log.Warn("search cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return result, nil
}

// Invalidate drops every cached search response and returns how many were removed.
func (c *CachedSearcher) Invalidate(ctx context.Context) (int64, error) {
	return database.DeleteByPrefix(ctx, c.rdb, cachePrefix)
}
