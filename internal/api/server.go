// internal/api/server.go
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"rental-marketplace/internal/assistant"
	"rental-marketplace/internal/common/auth"
	"rental-marketplace/internal/common/config"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/observability"
	"rental-marketplace/internal/common/validation"
	"rental-marketplace/internal/listings"
	"rental-marketplace/internal/models"
	"rental-marketplace/internal/quota"
	"rental-marketplace/internal/search"

	"github.com/gin-gonic/gin"
)

// QuotaGate admits gated AI actions.
type QuotaGate interface {
	CheckAndConsume(ctx context.Context, userID, feature string) (*quota.Decision, error)
	Status(ctx context.Context, userID, feature string) (*quota.Decision, error)
}

type ListingStore interface {
	Get(ctx context.Context, id string) (*models.Listing, error)
	GetOwned(ctx context.Context, id, ownerID string) (*models.Listing, error)
}

type AnalyticsRecorder interface {
	Record(ctx context.Context, listingID, event string) error
}

type ConsultationSubmitter interface {
	Submit(ctx context.Context, raw []byte) (*models.Consultation, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

type ListingImporter interface {
	Import(ctx context.Context, raw []byte) (*listings.ImportReport, error)
}

// Relay produces generated text, whole or streamed.
type Relay interface {
	Buffered(ctx context.Context, p assistant.Prompt) (string, error)
	Stream(ctx context.Context, p assistant.Prompt, begin func(), w assistant.FlushWriter) (*assistant.Transcript, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.GeoPoint, error)
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	Config        *config.Config
	Logger        logger.Logger
	Obs           *observability.Observability
	Verifier      auth.TokenVerifier
	Validator     *validation.Validator
	Quota         QuotaGate
	Search        search.Querier
	SearchCache   CacheInvalidator
	Listings      ListingStore
	Analytics     AnalyticsRecorder
	Consultations ConsultationSubmitter
	Importer      ListingImporter
	Relay         Relay
	Geocoder      Geocoder
	Checks        map[string]Pinger
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger logger.Logger
}

func NewServer(deps Deps) *Server {
	engine := NewRouter(deps)
	cfg := deps.Config.Server
	return &Server{
		engine: engine,
		logger: deps.Logger,
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      engine,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
