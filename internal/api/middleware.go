// internal/api/middleware.go
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"rental-marketplace/internal/common/auth"
	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/common/observability"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// RequestLogger opens a span per request, logs the outcome with its trace id
// and records request metrics.
func RequestLogger(log logger.Logger, obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if obs != nil {
			ctx, span := obs.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath(),
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.target", c.Request.URL.Path),
			)
			defer span.End()
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())
		if obs != nil {
			obs.RecordRequest(c.Request.Context(), route, status, latency)
		}

		fields := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"latency":  latency.String(),
			"clientIp": c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields["errors"] = errs
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("request failed", fields)
		case status >= http.StatusBadRequest:
			l.Warn("request rejected", fields)
		default:
			l.Info("request served", fields)
		}
	}
}

// CORS allows the configured origins; "*" or an empty list allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok || wildcard {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Cache-Control, X-Requested-With")
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// BearerAuth verifies the Authorization header and stores the principal on the request context.
func BearerAuth(verifier auth.TokenVerifier, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortWithError(c, log, errors.NewTokenMissingError())
			return
		}

		info, err := verifier.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, log, err)
			return
		}
		if info == nil || !info.Active || info.UserID() == "" {
			abortWithError(c, log, errors.NewTokenInvalidError("token is not active"))
			return
		}

		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), info))
		c.Next()
	}
}

// RequireAdmin allows only the configured admin user ids.
func RequireAdmin(admins []string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		set[a] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := set[userID(c)]; !ok {
			writeError(c, errors.NewForbiddenError("admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

type errorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details string                 `json:"details,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

func writeError(c *gin.Context, err error) {
	stdErr := errors.AsStandard(err)
	body := errorBody{Error: stdErr.Message, Code: string(stdErr.Code), Meta: stdErr.Metadata}
	// internal details stay in the logs
	if stdErr.Code != errors.ErrCodeInternal {
		body.Details = stdErr.Details
	}
	_ = c.Error(err)
	c.JSON(errors.HTTPStatus(stdErr.Code), body)
}

func abortWithError(c *gin.Context, log logger.Logger, err error) {
	log.WithContext(c.Request.Context()).Debug("request aborted", map[string]interface{}{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
	writeError(c, err)
	c.Abort()
}
