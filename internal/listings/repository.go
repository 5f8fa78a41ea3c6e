// internal/listings/repository.go
package listings

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/models"
)

const listingColumns = `id, owner_id, COALESCE(agent_id, ''), title, description, address, city,
	lat, lng, rent, gender, room_type, COALESCE(building_id, ''), locale, updated_at`

const upsertListingSQL = `
	INSERT INTO listings (id, owner_id, agent_id, title, description, address, city,
	                      lat, lng, rent, gender, room_type, building_id, locale, updated_at)
	VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14, $15)
	ON CONFLICT (id) DO UPDATE SET
		owner_id    = EXCLUDED.owner_id,
		agent_id    = EXCLUDED.agent_id,
		title       = EXCLUDED.title,
		description = EXCLUDED.description,
		address     = EXCLUDED.address,
		city        = EXCLUDED.city,
		lat         = EXCLUDED.lat,
		lng         = EXCLUDED.lng,
		rent        = EXCLUDED.rent,
		gender      = EXCLUDED.gender,
		room_type   = EXCLUDED.room_type,
		building_id = EXCLUDED.building_id,
		locale      = EXCLUDED.locale,
		updated_at  = EXCLUDED.updated_at`

// Repository stores listings in postgres.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row scanner) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.AgentID, &l.Title, &l.Description, &l.Address, &l.City,
		&l.Location.Lat, &l.Location.Lng, &l.Rent, &l.Gender, &l.RoomType, &l.BuildingID,
		&l.Locale, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Get returns the listing or a RESOURCE_NOT_FOUND error.
func (r *Repository) Get(ctx context.Context, id string) (*models.Listing, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("listings", fmt.Sprintf("listing %s", id))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("listing_get", err)
	}
	return l, nil
}

// GetOwned returns the listing if ownerID owns it.
func (r *Repository) GetOwned(ctx context.Context, id, ownerID string) (*models.Listing, error) {
	l, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != ownerID {
		return nil, errors.NewOwnershipMismatchError("listing", id)
	}
	return l, nil
}

// All returns every listing ordered by id, for reindexing.
func (r *Repository) All(ctx context.Context) ([]models.Listing, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("listing_all", err)
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("listing_all", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("listing_all", err)
	}
	return out, nil
}

// Upsert writes all listings in one transaction; either every row lands or none does.
func (r *Repository) Upsert(ctx context.Context, listings []models.Listing) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertListingSQL)
	if err != nil {
		return errors.NewQueryExecutionFailedError("listing_upsert", err)
	}
	defer stmt.Close()

	for i := range listings {
		l := &listings[i]
		if l.UpdatedAt.IsZero() {
			l.UpdatedAt = r.now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			l.ID, l.OwnerID, l.AgentID, l.Title, l.Description, l.Address, l.City,
			l.Location.Lat, l.Location.Lng, l.Rent, l.Gender, l.RoomType, l.BuildingID,
			l.Locale, l.UpdatedAt,
		); err != nil {
			return errors.NewQueryExecutionFailedError("listing_upsert", fmt.Errorf("listing %s: %w", l.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewQueryExecutionFailedError("listing_upsert", err)
	}
	return nil
}
