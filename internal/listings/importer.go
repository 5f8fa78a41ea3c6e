package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/validation"
	"rental-marketplace/internal/models"
)

// Store is the durable listing store.
type Store interface {
	Upsert(ctx context.Context, listings []models.Listing) error
}

// Indexer pushes listings to the search index.
type Indexer interface {
	IndexListings(ctx context.Context, listings []models.Listing) error
}

// CacheInvalidator drops cached search responses.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

type ImportReport struct {
	Imported   int    `json:"imported"`
	Indexed    bool   `json:"indexed"`
	IndexError string `json:"indexError,omitempty"`
}

// Importer validates a listing batch, stores it, then indexes it.
type Importer struct {
	store     Store
	indexer   Indexer
	cache     CacheInvalidator
	validator *validation.Validator
	logger    logger.Logger
}

// NewImporter creates an Importer. cache may be nil.
func NewImporter(store Store, indexer Indexer, cache CacheInvalidator, v *validation.Validator, log logger.Logger) *Importer {
	return &Importer{store: store, indexer: indexer, cache: cache, validator: v, logger: log}
}

// Parse validates raw as a JSON array of listings. Any invalid element rejects the whole batch.
func (im *Importer) Parse(raw []byte) ([]models.Listing, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("body must be a JSON array of listings: %v", err))
	}
	if len(items) == 0 {
		return nil, errors.NewInputValidationFailedError("no listings supplied")
	}

	var problems []string
	seen := make(map[string]int, len(items))
	listings := make([]models.Listing, 0, len(items))
	for i, item := range items {
		res, err := im.validator.Validate(validation.SchemaListing, item)
		if err != nil {
			return nil, err
		}
		if !res.Valid {
			problems = append(problems, fmt.Sprintf("[%d] %s", i, res.Summary()))
			continue
		}

		var l models.Listing
		if err := json.Unmarshal(item, &l); err != nil {
			problems = append(problems, fmt.Sprintf("[%d] %v", i, err))
			continue
		}
		if prev, dup := seen[l.ID]; dup {
			problems = append(problems, fmt.Sprintf("[%d] duplicate id %q (first at [%d])", i, l.ID, prev))
			continue
		}
		seen[l.ID] = i
		if l.Gender == "" {
			l.Gender = models.GenderAny
		}
		if l.Locale == "" {
			l.Locale = "en"
		}
		listings = append(listings, l)
	}

	if len(problems) > 0 {
		return nil, errors.NewInputValidationFailedError(strings.Join(problems, "; "))
	}
	return listings, nil
}

// Import stores the batch and indexes it. A stored batch that fails to index
// is still reported as imported, with Indexed false.
func (im *Importer) Import(ctx context.Context, raw []byte) (*ImportReport, error) {
	listings, err := im.Parse(raw)
	if err != nil {
		return nil, err
	}

	if err := im.store.Upsert(ctx, listings); err != nil {
		return nil, err
	}

	report := &ImportReport{Imported: len(listings)}
	log := im.logger.WithContext(ctx)

	if err := im.indexer.IndexListings(ctx, listings); err != nil {
		log.Error("listing indexing failed after import", map[string]interface{}{
			"count": len(listings),
			"error": err.Error(),
		})
		report.IndexError = errors.AsStandard(err).Details
		return report, nil
	}
	report.Indexed = true

	if im.cache != nil {
		if n, err := im.cache.Invalidate(ctx); err != nil {
			log.Warn("search cache invalidation failed", map[string]interface{}{"error": err.Error()})
		} else {
			log.Info("search cache invalidated", map[string]interface{}{"entries": n})
		}
	}

	log.Info("listings imported", map[string]interface{}{"count": len(listings)})
	return report, nil
}
