package search

import (
	"context"
	"strings"

	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/models"
)

// Geocoder resolves free text to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.GeoPoint, error)
}

type BuilderConfig struct {
	HitsPerPage     int
	GeoRadiusMeters int
	MaxRent         int
	DefaultAnchor   models.GeoPoint
}

// DefaultBuilderConfig returns the marketplace defaults.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		HitsPerPage:     HitsPerPage,
		GeoRadiusMeters: GeoRadiusMeters,
		MaxRent:         MaxSelectableRent,
		DefaultAnchor:   DefaultAnchor,
	}
}

// Builder turns search box text and filter state into one index request.
type Builder struct {
	geocoder Geocoder
	cfg      BuilderConfig
	logger   logger.Logger
}

// NewBuilder creates a Builder. A nil geocoder makes every non-empty search a keyword search.
func NewBuilder(geocoder Geocoder, cfg BuilderConfig, log logger.Logger) *Builder {
	def := DefaultBuilderConfig()
	if cfg.HitsPerPage <= 0 {
		cfg.HitsPerPage = def.HitsPerPage
	}
	if cfg.GeoRadiusMeters <= 0 {
		cfg.GeoRadiusMeters = def.GeoRadiusMeters
	}
	if cfg.MaxRent <= 0 {
		cfg.MaxRent = def.MaxRent
	}
	if cfg.DefaultAnchor == (models.GeoPoint{}) {
		cfg.DefaultAnchor = def.DefaultAnchor
	}
	return &Builder{geocoder: geocoder, cfg: cfg, logger: log}
}

// Build derives the request for text and filters:
//   - empty or whitespace text anchors on the default landmark with an unbounded radius
//   - text that geocodes becomes a radius search with no keyword query
//   - text that fails to geocode stays a keyword query with no geo parameters
func (b *Builder) Build(ctx context.Context, text string, filters Filters) (*Intent, *Request) {
	predicate := BuildFilterPredicate(filters, b.cfg.MaxRent)
	intent := &Intent{RawText: text, FilterPredicate: predicate}
	req := &Request{Filters: predicate, HitsPerPage: b.cfg.HitsPerPage}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		all := &Radius{All: true}
		intent.Radius = all
		req.AroundLatLng = b.cfg.DefaultAnchor.String()
		req.AroundRadius = all
		return intent, req
	}

	point, err := b.geocode(ctx, trimmed)
	if err != nil {
		b.logger.WithContext(ctx).Warn("geocoding failed, falling back to keyword search", map[string]interface{}{
			"text":  trimmed,
			"error": err.Error(),
		})
		req.Query = text
		return intent, req
	}

	radius := &Radius{Meters: b.cfg.GeoRadiusMeters}
	intent.Resolved = &point
	intent.Radius = radius
	req.AroundLatLng = point.String()
	req.AroundRadius = radius
	return intent, req
}

func (b *Builder) geocode(ctx context.Context, text string) (models.GeoPoint, error) {
	if b.geocoder == nil {
		metrics.GeocodeRequests.WithLabelValues("disabled").Inc()
		return models.GeoPoint{}, ErrGeocoderDisabled
	}
	return b.geocoder.Geocode(ctx, text)
}
