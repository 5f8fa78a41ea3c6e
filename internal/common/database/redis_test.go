package database

import (
	"context"
	"testing"

	"rental-marketplace/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteByPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	for _, key := range []string{"search:v1:a", "search:v1:b", "search:v1:c", "geocode:v1:klcc"} {
		require.NoError(t, rdb.Set(ctx, key, "x", 0).Err())
	}

	deleted, err := DeleteByPrefix(ctx, rdb, "search:")
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
	assert.True(t, mr.Exists("geocode:v1:klcc"))
	assert.False(t, mr.Exists("search:v1:a"))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}
