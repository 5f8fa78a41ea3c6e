// internal/consultations/repository.go
package consultations

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/models"
)

const insertConsultationSQL = `
	INSERT INTO consultations (id, listing_id, agent_id, tenant_name, tenant_email, tenant_phone,
	                           message, preferred_date, locale, notified, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::date, $9, false, $10)`

// Repository stores consultations and reads agent contacts.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c *models.Consultation) error {
	_, err := r.db.ExecContext(ctx, insertConsultationSQL,
		c.ID, c.ListingID, c.AgentID, c.TenantName, c.TenantEmail, c.TenantPhone,
		c.Message, c.PreferredDate, c.Locale, c.CreatedAt,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (r *Repository) MarkNotified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE consultations SET notified = true WHERE id = $1`, id)
	if err != nil {
		return errors.NewQueryExecutionFailedError("consultation_mark_notified", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewResourceNotFoundError("consultations", fmt.Sprintf("consultation %s", id))
	}
	return nil
}

// Agent returns an agent's contact details.
func (r *Repository) Agent(ctx context.Context, id string) (*models.Agent, error) {
	var a models.Agent
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, push_endpoint_arn FROM agents WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PushEndpointARN)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("agents", fmt.Sprintf("agent %s", id))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("agent_get", err)
	}
	return &a, nil
}
