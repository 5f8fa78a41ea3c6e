package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"rental-marketplace/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		listing  string
		setup    func(mock sqlmock.Sqlmock)
		validate func(t *testing.T, err error)
	}{
		{
			name:    "view increments views",
			event:   EventView,
			listing: "l-1",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO listing_stats \(listing_id, views, updated_at\)`).
					WithArgs("l-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			validate: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:    "lead increments leads",
			event:   EventLead,
			listing: "l-1",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`leads = listing_stats.leads \+ 1`).
					WithArgs("l-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			validate: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:     "unknown event touches nothing",
			event:    "click",
			listing:  "l-1",
			setup:    func(sqlmock.Sqlmock) {},
			validate: func(t *testing.T, err error) { assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed)) },
		},
		{
			name:     "missing listing id",
			event:    EventImpression,
			setup:    func(sqlmock.Sqlmock) {},
			validate: func(t *testing.T, err error) { assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed)) },
		},
		{
			name:    "database failure",
			event:   EventImpression,
			listing: "l-1",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO listing_stats").WillReturnError(sql.ErrConnDone)
			},
			validate: func(t *testing.T, err error) {
				assert.True(t, errors.HasCode(err, errors.ErrCodeQueryExecutionFailed))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setup(mock)
			tt.validate(t, NewRecorder(db).Record(context.Background(), tt.listing, tt.event))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT views, impressions, leads, updated_at FROM listing_stats").
		WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows([]string{"views", "impressions", "leads", "updated_at"}).AddRow(12, 40, 2, updated))
	mock.ExpectQuery("SELECT views").
		WithArgs("l-2").
		WillReturnError(sql.ErrNoRows)

	r := NewRecorder(db)
	s, err := r.Stats(context.Background(), "l-1")
	require.NoError(t, err)
	assert.EqualValues(t, 12, s.Views)
	assert.EqualValues(t, 40, s.Impressions)
	assert.EqualValues(t, 2, s.Leads)

	empty, err := r.Stats(context.Background(), "l-2")
	require.NoError(t, err)
	assert.Equal(t, "l-2", empty.ListingID)
	assert.Zero(t, empty.Views)
}
