package consultations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/validation"
	"rental-marketplace/internal/models"

	"github.com/google/uuid"
)

// Store persists consultations.
type Store interface {
	Create(ctx context.Context, c *models.Consultation) error
	MarkNotified(ctx context.Context, id string) error
}

// ListingLookup finds the listing a consultation is about.
type ListingLookup interface {
	Get(ctx context.Context, id string) (*models.Listing, error)
}

// Notifier tells the listing's agent about a new consultation.
type Notifier interface {
	NotifyConsultation(ctx context.Context, c *models.Consultation) error
}

type request struct {
	ListingID     string `json:"listingId"`
	TenantName    string `json:"tenantName"`
	TenantEmail   string `json:"tenantEmail"`
	TenantPhone   string `json:"tenantPhone"`
	Message       string `json:"message"`
	PreferredDate string `json:"preferredDate"`
	Locale        string `json:"locale"`
}

// Service accepts consultation requests from tenants.
type Service struct {
	store     Store
	listings  ListingLookup
	notifier  Notifier
	validator *validation.Validator
	logger    logger.Logger
	now       func() time.Time
}

func NewService(store Store, listings ListingLookup, notifier Notifier, v *validation.Validator, log logger.Logger) *Service {
	return &Service{
		store:     store,
		listings:  listings,
		notifier:  notifier,
		validator: v,
		logger:    log,
		now:       time.Now,
	}
}

// Submit validates and stores a consultation, then notifies the agent.
// A stored consultation is returned even when notification fails; Notified reports the outcome.
func (s *Service) Submit(ctx context.Context, raw []byte) (*models.Consultation, error) {
	res, err := s.validator.Validate(validation.SchemaConsultation, raw)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, errors.NewInputValidationFailedError(res.Summary())
	}

	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("decode consultation: %v", err))
	}

	listing, err := s.listings.Get(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.AgentID == "" {
		return nil, errors.NewBusinessRuleError("Listing has no agent", fmt.Sprintf("listing %s", listing.ID))
	}

	locale := req.Locale
	if locale == "" {
		locale = listing.Locale
	}

	c := &models.Consultation{
		ID:            uuid.NewString(),
		ListingID:     listing.ID,
		AgentID:       listing.AgentID,
		TenantName:    strings.TrimSpace(req.TenantName),
		TenantEmail:   strings.TrimSpace(req.TenantEmail),
		TenantPhone:   strings.TrimSpace(req.TenantPhone),
		Message:       req.Message,
		PreferredDate: req.PreferredDate,
		Locale:        locale,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"consultationId": c.ID,
		"listingId":      c.ListingID,
		"agentId":        c.AgentID,
	})

	if err := s.notifier.NotifyConsultation(ctx, c); err != nil {
		log.Warn("agent notification failed, consultation kept", map[string]interface{}{"error": err.Error()})
		return c, nil
	}
	if err := s.store.MarkNotified(ctx, c.ID); err != nil {
		log.Warn("failed to record notification", map[string]interface{}{"error": err.Error()})
	}
	c.Notified = true

	log.Info("consultation submitted", nil)
	return c, nil
}
