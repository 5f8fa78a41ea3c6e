package quota

import (
	"context"
	"sort"
	"strings"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Gated features known to the service.
const (
	FeatureChat              = "chat"
	FeatureCommuteAssessment = "commute_assessment"
)

// Decision is the outcome of one gate check.
type Decision struct {
	Feature   string    `json:"feature"`
	Allowed   bool      `json:"allowed"`
	Count     int       `json:"count"`
	Ceiling   int       `json:"ceiling"`
	Remaining int       `json:"remaining"`
	Bypassed  bool      `json:"bypassed,omitempty"`
	ResetsAt  time.Time `json:"resetsAt"`
}

type Config struct {
	Ceilings   map[string]int
	Privileged []string
	Location   *time.Location
}

// Gate admits or denies gated actions against per-user daily ceilings.
type Gate struct {
	store      Store
	ceilings   map[string]int
	privileged map[string]struct{}
	loc        *time.Location
	now        func() time.Time
	logger     logger.Logger
	tracer     trace.Tracer
}

type Option func(*Gate)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(store Store, cfg Config, log logger.Logger, opts ...Option) *Gate {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	g := &Gate{
		store:      store,
		ceilings:   make(map[string]int, len(cfg.Ceilings)),
		privileged: make(map[string]struct{}, len(cfg.Privileged)),
		loc:        loc,
		now:        time.Now,
		logger:     log,
		tracer:     otel.Tracer("rental-marketplace/quota"),
	}
	for feature, ceiling := range cfg.Ceilings {
		g.ceilings[feature] = ceiling
	}
	for _, id := range cfg.Privileged {
		if id = strings.TrimSpace(id); id != "" {
			g.privileged[id] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Features returns the gated feature names.
func (g *Gate) Features() []string {
	out := make([]string, 0, len(g.ceilings))
	for f := range g.ceilings {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// CheckAndConsume counts one action for userID if today's count is under the
// feature's ceiling. A denial is not an error. A store failure returns a
// denied decision together with a QUOTA_STORE_UNAVAILABLE error.
func (g *Gate) CheckAndConsume(ctx context.Context, userID, feature string) (*Decision, error) {
	ctx, span := g.tracer.Start(ctx, "quota.CheckAndConsume", trace.WithAttributes(
		attribute.String("quota.feature", feature),
	))
	defer span.End()
	log := g.logger.WithContext(ctx)

	ceiling, ok := g.ceilings[feature]
	if !ok {
		return nil, errors.NewUnknownFeatureError(feature)
	}
	if userID == "" {
		return nil, errors.NewInputValidationFailedError("user id is required")
	}

	now := g.now()
	resetsAt := NextReset(now, g.loc)

	if g.isPrivileged(userID) {
		metrics.QuotaDecisions.WithLabelValues(feature, "privileged").Inc()
		span.SetAttributes(attribute.Bool("quota.bypassed", true))
		return &Decision{
			Feature:   feature,
			Allowed:   true,
			Ceiling:   ceiling,
			Remaining: ceiling,
			Bypassed:  true,
			ResetsAt:  resetsAt,
		}, nil
	}

	var allowed bool
	rec, err := g.store.Transact(ctx, userID, feature, func(current UsageRecord) (UsageRecord, bool) {
		next, ok := Decide(current, now, g.loc, ceiling)
		allowed = ok
		return next, ok
	})
	if err != nil {
		metrics.QuotaDecisions.WithLabelValues(feature, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "quota store unavailable")
		log.Error("quota store failed, denying action", map[string]interface{}{
			"userId":  userID,
			"feature": feature,
			"error":   err.Error(),
		})
		return &Decision{Feature: feature, Allowed: false, Ceiling: ceiling, ResetsAt: resetsAt},
			errors.NewQuotaStoreUnavailableError(err)
	}

	count := CountToday(rec, now, g.loc)
	decision := &Decision{
		Feature:   feature,
		Allowed:   allowed,
		Count:     count,
		Ceiling:   ceiling,
		Remaining: max(ceiling-count, 0),
		ResetsAt:  resetsAt,
	}

	span.SetAttributes(
		attribute.Bool("quota.allowed", allowed),
		attribute.Int("quota.count", count),
	)
	if allowed {
		metrics.QuotaDecisions.WithLabelValues(feature, "allowed").Inc()
	} else {
		metrics.QuotaDecisions.WithLabelValues(feature, "denied").Inc()
		log.Info("daily quota reached", map[string]interface{}{
			"userId":  userID,
			"feature": feature,
			"ceiling": ceiling,
		})
	}
	return decision, nil
}

// Status reports today's usage without consuming an action.
func (g *Gate) Status(ctx context.Context, userID, feature string) (*Decision, error) {
	ceiling, ok := g.ceilings[feature]
	if !ok {
		return nil, errors.NewUnknownFeatureError(feature)
	}

	now := g.now()
	resetsAt := NextReset(now, g.loc)

	if g.isPrivileged(userID) {
		return &Decision{Feature: feature, Allowed: true, Ceiling: ceiling, Remaining: ceiling, Bypassed: true, ResetsAt: resetsAt}, nil
	}

	rec, err := g.store.Get(ctx, userID, feature)
	if err != nil {
		return nil, errors.NewQuotaStoreUnavailableError(err)
	}

	count := CountToday(rec, now, g.loc)
	return &Decision{
		Feature:   feature,
		Allowed:   count < ceiling,
		Count:     count,
		Ceiling:   ceiling,
		Remaining: max(ceiling-count, 0),
		ResetsAt:  resetsAt,
	}, nil
}

func (g *Gate) isPrivileged(userID string) bool {
	_, ok := g.privileged[userID]
	return ok
}
