package search

import (
	"context"
	stderrors "errors"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
)

// Searcher executes a built request against the listing index.
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Result, error)
}

// Querier runs a full search from raw input.
type Querier interface {
	Search(ctx context.Context, text string, filters Filters) (*Response, error)
}

type Response struct {
	Intent  *Intent  `json:"intent"`
	Request *Request `json:"request"`
	Result  *Result  `json:"result"`
}

// Service builds requests and runs them against a Searcher.
type Service struct {
	builder  *Builder
	searcher Searcher
	timeout  time.Duration
	logger   logger.Logger
}

func NewService(builder *Builder, searcher Searcher, timeout time.Duration, log logger.Logger) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{builder: builder, searcher: searcher, timeout: timeout, logger: log}
}

// Builder exposes the request builder.
func (s *Service) Builder() *Builder {
	return s.builder
}

func (s *Service) Search(ctx context.Context, text string, filters Filters) (*Response, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	intent, req := s.builder.Build(ctx, text, filters)
	mode := searchMode(intent, req)

	result, err := s.searcher.Search(ctx, req)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchQueries.WithLabelValues(mode, "error").Inc()
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.HasCode(err, errors.ErrCodeSearchTimeout) {
			err = errors.NewSearchTimeoutError("listings")
		}
		return nil, err
	}

	metrics.SearchQueries.WithLabelValues(mode, "ok").Inc()
	s.logger.WithContext(ctx).Debug("search completed", map[string]interface{}{
		"mode":  mode,
		"total": result.Total,
		"took":  time.Since(start).Milliseconds(),
	})
	return &Response{Intent: intent, Request: req, Result: result}, nil
}

func searchMode(intent *Intent, req *Request) string {
	switch {
	case intent.Resolved != nil:
		return "geo"
	case req.GeoAnchored():
		return "browse"
	default:
		return "keyword"
	}
}
