package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/models"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "geocode:v1:"

// Resolver is anything that geocodes an address.
type Resolver interface {
	Geocode(ctx context.Context, address string) (models.GeoPoint, error)
}

// CachedGeocoder keeps successful lookups in Redis. Failures are never cached.
type CachedGeocoder struct {
	next   Resolver
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedGeocoder(next Resolver, rdb redis.UniversalClient, ttl time.Duration, log logger.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl, logger: log}
}

// CacheKey normalizes case and whitespace so trivially different inputs share an entry.
func CacheKey(address string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(norm))
	return cachePrefix + hex.EncodeToString(sum[:12])
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (models.GeoPoint, error) {
	key := CacheKey(address)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var p models.GeoPoint
		if err := json.Unmarshal(raw, &p); err == nil {
			metrics.GeocodeRequests.WithLabelValues("cache_hit").Inc()
			return p, nil
		}
	} else if !stderrors.Is(err, redis.Nil) {
		c.logger.WithContext(ctx).Warn("geocode cache read failed", map[string]interface{}{"error": err.Error()})
	}

	p, err := c.next.Geocode(ctx, address)
	if err != nil {
		return models.GeoPoint{}, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.WithContext(ctx).Warn("geocode cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return p, nil
}
