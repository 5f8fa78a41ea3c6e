// internal/api/public.go
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/search"

	"github.com/gin-gonic/gin"
)

type analyticsRequest struct {
	ListingID string `json:"listingId"`
}

func (h *handlers) recordAnalytics(c *gin.Context) {
	var req analyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.NewInputValidationFailedError("body must be {\"listingId\": string}"))
		return
	}
	if err := h.deps.Analytics.Record(c.Request.Context(), req.ListingID, c.Param("event")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// submitConsultation stores the request; a failed notification still returns 201 with notified=false.
func (h *handlers) submitConsultation(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, errors.NewInputValidationFailedError(err.Error()))
		return
	}

	consultation, err := h.deps.Consultations.Submit(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, consultation)
}

func (h *handlers) revalidate(c *gin.Context) {
	secret := c.Query("secret")
	if h.revalidateToken == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.revalidateToken)) != 1 {
		writeError(c, errors.NewSecretInvalidError())
		return
	}

	removed, err := h.deps.SearchCache.Invalidate(c.Request.Context())
	if err != nil {
		writeError(c, errors.NewExternalServiceError("redis", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"revalidated": true, "removed": removed})
}

type searchRequest struct {
	Text    string         `json:"text"`
	Filters search.Filters `json:"filters"`
}

func (h *handlers) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.NewInvalidFilterFormatError(err.Error()))
		return
	}
	req.Text = strings.TrimSpace(req.Text)

	resp, err := h.deps.Search.Search(c.Request.Context(), req.Text, req.Filters)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
