package api

import (
	"time"

	"rental-marketplace/internal/common/auth"
	"rental-marketplace/internal/common/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handlers struct {
	deps            Deps
	revalidateToken string
	debounce        time.Duration
	origins         []string
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(deps Deps) *gin.Engine {
	h := &handlers{
		deps:            deps,
		revalidateToken: deps.Config.Server.RevalidateSecret,
		debounce:        config.GetDuration(deps.Config.Search.DebounceMs),
		origins:         deps.Config.Server.CORSOrigins,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Logger, deps.Obs))
	r.Use(CORS(deps.Config.Server.CORSOrigins))

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pub := r.Group("/api")
	pub.POST("/analytics/:event", h.recordAnalytics)
	pub.POST("/consultations", h.submitConsultation)
	pub.POST("/revalidate", h.revalidate)
	pub.POST("/search", h.search)
	pub.GET("/search/live", h.liveSearch)

	authed := r.Group("/api", BearerAuth(deps.Verifier, deps.Logger))
	authed.GET("/quota/:feature", h.quotaStatus)
	authed.POST("/ai/commute-assessment", h.commuteAssessment)
	authed.POST("/ai/commute-assessment/stream", h.commuteAssessmentStream)
	authed.POST("/ai/chat/stream", h.chatStream)
	authed.POST("/listings/:id/agreement-analysis/stream", h.agreementAnalysisStream)

	admin := authed.Group("/admin", RequireAdmin(deps.Config.Auth.Admins))
	admin.POST("/listings/import", h.importListings)

	return r
}

// userID returns the verified caller; BearerAuth guarantees it on authed routes.
func userID(c *gin.Context) string {
	info, ok := auth.PrincipalFrom(c.Request.Context())
	if !ok {
		return ""
	}
	return info.UserID()
}
