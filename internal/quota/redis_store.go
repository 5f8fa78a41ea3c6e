package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldCount      = "count"
	fieldLastAction = "last_action"
)

// RedisStore keeps each record in a hash at quota:{feature}:{userID} and
// serializes writers with WATCH/MULTI/EXEC.
type RedisStore struct {
	client     redis.UniversalClient
	maxRetries int
}

func NewRedisStore(client redis.UniversalClient, maxRetries int) *RedisStore {
	if maxRetries <= 0 {
		maxRetries = 50
	}
	return &RedisStore{client: client, maxRetries: maxRetries}
}

func recordKey(feature, userID string) string {
	return fmt.Sprintf("quota:%s:%s", feature, userID)
}

func (s *RedisStore) Get(ctx context.Context, userID, feature string) (UsageRecord, error) {
	vals, err := s.client.HGetAll(ctx, recordKey(feature, userID)).Result()
	if err != nil {
		return UsageRecord{}, fmt.Errorf("read usage record: %w", err)
	}
	return decodeRecord(vals)
}

func (s *RedisStore) Transact(ctx context.Context, userID, feature string, fn MutateFunc) (UsageRecord, error) {
	key := recordKey(feature, userID)
	var result UsageRecord

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		current, err := decodeRecord(vals)
		if err != nil {
			return err
		}

		next, write := fn(current)
		if !write {
			result = current
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldCount, next.DailyCount,
				fieldLastAction, next.LastActionDate.UTC().Format(time.RFC3339Nano),
			)
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return UsageRecord{}, fmt.Errorf("usage transaction: %w", err)
	}

	return UsageRecord{}, fmt.Errorf("%w: %s after %d attempts", ErrContention, key, s.maxRetries)
}

func decodeRecord(vals map[string]string) (UsageRecord, error) {
	var rec UsageRecord
	if len(vals) == 0 {
		return rec, nil
	}

	if raw, ok := vals[fieldCount]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return rec, fmt.Errorf("corrupt %s field %q: %w", fieldCount, raw, err)
		}
		rec.DailyCount = n
	}
	if raw, ok := vals[fieldLastAction]; ok && raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return rec, fmt.Errorf("corrupt %s field %q: %w", fieldLastAction, raw, err)
		}
		rec.LastActionDate = t
	}
	return rec, nil
}
