// internal/workers/consultation/crm-lead-create/handler.go
package crmleadcreate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/common/zoho"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType          = "consultation.crm-lead-create"
	defaultLeadSource = "Marketplace Consultation"
)

// CRM is the subset of the Zoho client the worker needs.
type CRM interface {
	SearchLeads(ctx context.Context, email string) ([]zoho.Lead, error)
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
	AddNote(ctx context.Context, leadID string, note zoho.Note) (string, error)
}

type Handler struct {
	config     *Config
	crm        CRM
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, crm CRM, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		crm:        crm,
		errHandler: errors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		err = errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
		h.fail(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return err
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("build complete command: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("complete job %d: %w", job.Key, err)
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandard(err).Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

// Execute attaches the consultation to an existing lead for the tenant, or creates one.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	email := strings.TrimSpace(strings.ToLower(input.TenantEmail))
	if email == "" {
		return nil, errors.NewInputValidationFailedError("tenantEmail is required")
	}

	existing, err := h.crm.SearchLeads(ctx, email)
	if err != nil {
		return nil, errors.NewCRMSyncFailedError(err)
	}

	if len(existing) > 0 {
		leadID := existing[0].ID
		if _, err := h.crm.AddNote(ctx, leadID, noteFor(input)); err != nil {
			return nil, errors.NewCRMSyncFailedError(err)
		}
		h.logger.Info("consultation attached to existing lead", map[string]interface{}{
			"leadId":         leadID,
			"consultationId": input.ConsultationID,
		})
		return &Output{LeadID: leadID, Created: false}, nil
	}

	first, last := splitName(input.TenantName)
	leadID, err := h.crm.CreateLead(ctx, &zoho.Lead{
		Email:       email,
		FirstName:   first,
		LastName:    last,
		Phone:       input.TenantPhone,
		Source:      h.config.LeadSource,
		Description: input.Message,
		ListingID:   input.ListingID,
		AgentID:     input.AgentID,
	})
	if err != nil {
		return nil, errors.NewCRMSyncFailedError(err)
	}

	h.logger.Info("lead created", map[string]interface{}{
		"leadId":         leadID,
		"consultationId": input.ConsultationID,
	})
	return &Output{LeadID: leadID, Created: true}, nil
}

func noteFor(input *Input) zoho.Note {
	var b strings.Builder
	fmt.Fprintf(&b, "Consultation %s for listing %s", input.ConsultationID, input.ListingID)
	if input.PreferredDate != "" {
		fmt.Fprintf(&b, "\nPreferred date: %s", input.PreferredDate)
	}
	if input.Message != "" {
		fmt.Fprintf(&b, "\n\n%s", input.Message)
	}
	return zoho.Note{Title: "New consultation request", Content: b.String()}
}

// splitName puts everything after the first word in the last name; Zoho requires Last_Name.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
