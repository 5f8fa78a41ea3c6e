package quota

import (
	"context"
	"errors"
)

// ErrContention is returned when a store gives up retrying a contended transaction.
var ErrContention = errors.New("QUOTA_CONTENTION")

// MutateFunc receives the current record inside a store transaction and returns
// the record to persist. When write is false nothing is written.
// It may be invoked more than once if the transaction is retried.
type MutateFunc func(current UsageRecord) (next UsageRecord, write bool)

// Store persists usage records. Transact must run read, fn and write as one
// atomic unit with respect to other Transact calls on the same key.
type Store interface {
	Transact(ctx context.Context, userID, feature string, fn MutateFunc) (UsageRecord, error)
	Get(ctx context.Context, userID, feature string) (UsageRecord, error)
}
