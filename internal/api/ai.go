// internal/api/ai.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"rental-marketplace/internal/assistant"
	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/validation"
	"rental-marketplace/internal/models"
	"rental-marketplace/internal/quota"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type commuteRequest struct {
	ListingID      string   `json:"listingId"`
	Workplace      string   `json:"workplace"`
	TransportModes []string `json:"transportModes"`
	Priorities     string   `json:"priorities"`
	Locale         string   `json:"locale"`
}

type chatRequest struct {
	Message   string           `json:"message"`
	ListingID string           `json:"listingId"`
	History   []assistant.Turn `json:"history"`
	Locale    string           `json:"locale"`
}

type agreementRequest struct {
	AgreementText string `json:"agreementText"`
	Locale        string `json:"locale"`
}

func (h *handlers) quotaStatus(c *gin.Context) {
	decision, err := h.deps.Quota.Status(c.Request.Context(), userID(c), c.Param("feature"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// bindValidated checks the raw body against a request schema before decoding it.
func (h *handlers) bindValidated(c *gin.Context, schema string, dst interface{}) bool {
	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, errors.NewInputValidationFailedError(err.Error()))
		return false
	}

	result, err := h.deps.Validator.Validate(schema, raw)
	if err != nil {
		writeError(c, errors.NewInputValidationFailedError(err.Error()))
		return false
	}
	if !result.Valid {
		writeError(c, errors.NewInputValidationFailedError(result.Summary()))
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		writeError(c, errors.NewInputValidationFailedError(err.Error()))
		return false
	}
	return true
}

// consume charges one gated action to the caller. A denial is an expected
// outcome and is answered with 429 and the current usage.
func (h *handlers) consume(c *gin.Context, feature string) bool {
	decision, err := h.deps.Quota.CheckAndConsume(c.Request.Context(), userID(c), feature)
	if err != nil {
		writeError(c, err)
		return false
	}

	setQuotaHeaders(c, decision)
	if !decision.Allowed {
		stdErr := errors.NewQuotaExceededError(feature, decision.Ceiling)
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": stdErr.Message,
			"code":  string(stdErr.Code),
			"quota": decision,
		})
		return false
	}
	return true
}

func setQuotaHeaders(c *gin.Context, d *quota.Decision) {
	if d.Bypassed {
		return
	}
	c.Header("X-Quota-Limit", strconv.Itoa(d.Ceiling))
	c.Header("X-Quota-Remaining", strconv.Itoa(d.Remaining))
	c.Header("X-Quota-Reset", d.ResetsAt.UTC().Format(http.TimeFormat))
}

// commutePrompt loads the listing and geocodes the workplace concurrently.
// Only the listing is required; without coordinates the prompt omits the distance.
func (h *handlers) commutePrompt(ctx context.Context, req *commuteRequest) (assistant.Prompt, error) {
	var (
		listing *models.Listing
		point   *models.GeoPoint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := h.deps.Listings.Get(gctx, req.ListingID)
		if err != nil {
			return err
		}
		listing = l
		return nil
	})
	g.Go(func() error {
		p, err := h.deps.Geocoder.Geocode(gctx, req.Workplace)
		if err != nil {
			h.deps.Logger.WithContext(ctx).Debug("workplace geocoding failed", map[string]interface{}{
				"error": err.Error(),
			})
			return nil
		}
		point = &p
		return nil
	})
	if err := g.Wait(); err != nil {
		return assistant.Prompt{}, err
	}

	locale := req.Locale
	if locale == "" {
		locale = listing.Locale
	}
	return assistant.CommutePrompt(assistant.CommuteInput{
		Listing:        *listing,
		Workplace:      req.Workplace,
		WorkplacePoint: point,
		TransportModes: req.TransportModes,
		Priorities:     req.Priorities,
		Locale:         locale,
	}), nil
}

func (h *handlers) prepareCommute(c *gin.Context) (assistant.Prompt, bool) {
	var req commuteRequest
	if !h.bindValidated(c, validation.SchemaCommuteAssessment, &req) {
		return assistant.Prompt{}, false
	}
	prompt, err := h.commutePrompt(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return assistant.Prompt{}, false
	}
	if !h.consume(c, quota.FeatureCommuteAssessment) {
		return assistant.Prompt{}, false
	}
	return prompt, true
}

func (h *handlers) commuteAssessment(c *gin.Context) {
	prompt, ok := h.prepareCommute(c)
	if !ok {
		return
	}

	text, err := h.deps.Relay.Buffered(c.Request.Context(), prompt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessment": text})
}

func (h *handlers) commuteAssessmentStream(c *gin.Context) {
	prompt, ok := h.prepareCommute(c)
	if !ok {
		return
	}
	h.stream(c, prompt)
}

func (h *handlers) chatStream(c *gin.Context) {
	var req chatRequest
	if !h.bindValidated(c, validation.SchemaChat, &req) {
		return
	}

	in := assistant.ChatInput{History: req.History, Message: req.Message, Locale: req.Locale}
	if req.ListingID != "" {
		listing, err := h.deps.Listings.Get(c.Request.Context(), req.ListingID)
		if err != nil {
			writeError(c, err)
			return
		}
		in.Listing = listing
	}

	if !h.consume(c, quota.FeatureChat) {
		return
	}
	h.stream(c, assistant.ChatPrompt(in))
}

// agreementAnalysisStream is restricted to the listing's owner and is not metered.
func (h *handlers) agreementAnalysisStream(c *gin.Context) {
	listing, err := h.deps.Listings.GetOwned(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	var req agreementRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AgreementText) == "" {
		writeError(c, errors.NewInputValidationFailedError("agreementText is required"))
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = listing.Locale
	}
	h.stream(c, assistant.AgreementRiskPrompt(assistant.AgreementInput{
		Listing:       *listing,
		AgreementText: req.AgreementText,
		Locale:        locale,
	}))
}

// stream relays generated text as chunked plain text. Errors before the first
// chunk get a JSON error response; after it the stream just ends.
func (h *handlers) stream(c *gin.Context, prompt assistant.Prompt) {
	begin := func() {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
	}

	transcript, err := h.deps.Relay.Stream(c.Request.Context(), prompt, begin, c.Writer)
	if err == nil {
		return
	}
	if !c.Writer.Written() {
		writeError(c, err)
		return
	}

	chunks := 0
	if transcript != nil {
		chunks = transcript.Chunks
	}
	_ = c.Error(err)
	h.deps.Logger.WithContext(c.Request.Context()).Warn("stream interrupted", map[string]interface{}{
		"feature": prompt.Feature,
		"chunks":  chunks,
		"error":   err.Error(),
	})
}
