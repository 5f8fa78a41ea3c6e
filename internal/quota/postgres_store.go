package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	ensureRecordSQL = `INSERT INTO usage_records (user_id, feature, daily_count)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, feature) DO NOTHING`

	lockRecordSQL = `SELECT daily_count, last_action_at FROM usage_records
		WHERE user_id = $1 AND feature = $2
		FOR UPDATE`

	selectRecordSQL = `SELECT daily_count, last_action_at FROM usage_records
		WHERE user_id = $1 AND feature = $2`

	updateRecordSQL = `UPDATE usage_records SET daily_count = $3, last_action_at = $4
		WHERE user_id = $1 AND feature = $2`
)

// PostgresStore locks the usage row with SELECT ... FOR UPDATE for the
// duration of each transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID, feature string) (UsageRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecordSQL, userID, feature))
	if errors.Is(err, sql.ErrNoRows) {
		return UsageRecord{}, nil
	}
	if err != nil {
		return UsageRecord{}, fmt.Errorf("read usage record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Transact(ctx context.Context, userID, feature string, fn MutateFunc) (UsageRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UsageRecord{}, fmt.Errorf("begin usage transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, ensureRecordSQL, userID, feature); err != nil {
		return UsageRecord{}, fmt.Errorf("ensure usage record: %w", err)
	}

	current, err := scanRecord(tx.QueryRowContext(ctx, lockRecordSQL, userID, feature))
	if err != nil {
		return UsageRecord{}, fmt.Errorf("lock usage record: %w", err)
	}

	next, write := fn(current)
	if !write {
		if err := tx.Commit(); err != nil {
			return UsageRecord{}, fmt.Errorf("commit usage transaction: %w", err)
		}
		return current, nil
	}

	if _, err := tx.ExecContext(ctx, updateRecordSQL, userID, feature, next.DailyCount, next.LastActionDate.UTC()); err != nil {
		return UsageRecord{}, fmt.Errorf("update usage record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return UsageRecord{}, fmt.Errorf("commit usage transaction: %w", err)
	}
	return next, nil
}

func scanRecord(row *sql.Row) (UsageRecord, error) {
	var (
		count int
		last  sql.NullTime
	)
	if err := row.Scan(&count, &last); err != nil {
		return UsageRecord{}, err
	}
	rec := UsageRecord{DailyCount: count}
	if last.Valid {
		rec.LastActionDate = last.Time
	}
	return rec, nil
}
