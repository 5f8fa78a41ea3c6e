// internal/analytics/recorder.go
package analytics

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/models"
)

// Event names accepted by Record.
const (
	EventView       = "view"
	EventImpression = "impression"
	EventLead       = "lead"
)

var columns = map[string]string{
	EventView:       "views",
	EventImpression: "impressions",
	EventLead:       "leads",
}

// Recorder increments per-listing counters.
type Recorder struct {
	db *sql.DB
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record adds one event to the listing's counters, creating the row on first use.
func (r *Recorder) Record(ctx context.Context, listingID, event string) error {
	col, ok := columns[event]
	if !ok {
		return errors.NewInputValidationFailedError(fmt.Sprintf("unknown analytics event %q", event))
	}
	if listingID == "" {
		return errors.NewInputValidationFailedError("listingId is required")
	}

	// col comes from the fixed map above
	query := fmt.Sprintf(`
		INSERT INTO listing_stats (listing_id, %[1]s, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (listing_id) DO UPDATE SET
			%[1]s = listing_stats.%[1]s + 1,
			updated_at = now()`, col)

	if _, err := r.db.ExecContext(ctx, query, listingID); err != nil {
		return errors.NewQueryExecutionFailedError("analytics_"+event, err)
	}
	metrics.AnalyticsEvents.WithLabelValues(event).Inc()
	return nil
}

// Stats returns the counters for a listing; a listing with no events has zero counters.
func (r *Recorder) Stats(ctx context.Context, listingID string) (*models.ListingStats, error) {
	s := &models.ListingStats{ListingID: listingID}
	err := r.db.QueryRowContext(ctx,
		`SELECT views, impressions, leads, updated_at FROM listing_stats WHERE listing_id = $1`,
		listingID,
	).Scan(&s.Views, &s.Impressions, &s.Leads, &s.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("analytics_stats", err)
	}
	return s, nil
}
