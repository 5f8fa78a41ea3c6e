package search

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	result *Result
	err    error
	calls  int
}

func (s *stubSearcher) Search(context.Context, *Request) (*Result, error) {
	s.calls++
	return s.result, s.err
}

func sampleResult() *Result {
	return &Result{
		Hits:  []models.ListingHit{{Listing: models.Listing{ID: "l-1", Title: "Studio near LRT", Rent: 1200}}},
		Total: 1,
	}
}

func TestCacheKey_Stable(t *testing.T) {
	a := &Request{Query: "bangsar", HitsPerPage: 20}
	b := &Request{Query: "bangsar", HitsPerPage: 20}
	c := &Request{Query: "bangsar", HitsPerPage: 20, Filters: "rent >= 800"}

	assert.Equal(t, CacheKey(a), CacheKey(b))
	assert.NotEqual(t, CacheKey(a), CacheKey(c))
	assert.Contains(t, CacheKey(a), "search:v1:")
}

func TestCachedSearcher_MissThenStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	next := &stubSearcher{result: sampleResult()}
	cs := NewCachedSearcher(next, db, time.Minute, logger.NewTestLogger(t))

	req := &Request{Query: "studio", HitsPerPage: 20}
	key := CacheKey(req)
	encoded, err := json.Marshal(next.result)
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, encoded, time.Minute).SetVal("OK")

	res, err := cs.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "l-1", res.Hits[0].ID)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSearcher_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	next := &stubSearcher{err: stderrors.New("must not be called")}
	cs := NewCachedSearcher(next, db, time.Minute, logger.NewTestLogger(t))

	req := &Request{Query: "studio", HitsPerPage: 20}
	encoded, err := json.Marshal(sampleResult())
	require.NoError(t, err)
	mock.ExpectGet(CacheKey(req)).SetVal(string(encoded))

	res, err := cs.Search(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	assert.Zero(t, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSearcher_ReadErrorFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	next := &stubSearcher{result: sampleResult()}
	cs := NewCachedSearcher(next, db, time.Minute, logger.NewTestLogger(t))

	req := &Request{Query: "studio", HitsPerPage: 20}
	mock.ExpectGet(CacheKey(req)).SetErr(stderrors.New("connection refused"))
	mock.ExpectSet(CacheKey(req), mustJSON(t, next.result), time.Minute).SetErr(stderrors.New("connection refused"))

	res, err := cs.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, next.result, res)
}

func TestCachedSearcher_DoesNotCacheErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	next := &stubSearcher{err: stderrors.New("index unavailable")}
	cs := NewCachedSearcher(next, db, time.Minute, logger.NewTestLogger(t))

	req := &Request{Query: "studio"}
	mock.ExpectGet(CacheKey(req)).RedisNil()

	_, err := cs.Search(context.Background(), req)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSearcher_Invalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	next := &stubSearcher{result: sampleResult()}
	cs := NewCachedSearcher(next, rdb, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := cs.Search(ctx, &Request{Query: "a"})
	require.NoError(t, err)
	_, err = cs.Search(ctx, &Request{Query: "b"})
	require.NoError(t, err)
	require.NoError(t, mr.Set("geocode:v1:klcc", "3.1579,101.7116"))

	n, err := cs.Invalidate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.True(t, mr.Exists("geocode:v1:klcc"))

	_, err = cs.Search(ctx, &Request{Query: "a"})
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
