package notify

import (
	"context"

	"rental-marketplace/internal/common/camunda"
	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/models"
)

// Workflow hands consultation follow-up to a Zeebe process, whose workers
// notify the agent and create the CRM lead.
type Workflow struct {
	starter   camunda.ProcessStarter
	processID string
	logger    logger.Logger
}

func NewWorkflow(starter camunda.ProcessStarter, processID string, log logger.Logger) *Workflow {
	return &Workflow{starter: starter, processID: processID, logger: log}
}

// FollowUpVariables are the process variables of the follow-up process.
type FollowUpVariables struct {
	ConsultationID string `json:"consultationId"`
	ListingID      string `json:"listingId"`
	AgentID        string `json:"agentId"`
	TenantName     string `json:"tenantName"`
	TenantEmail    string `json:"tenantEmail"`
	TenantPhone    string `json:"tenantPhone,omitempty"`
	Message        string `json:"message,omitempty"`
	PreferredDate  string `json:"preferredDate,omitempty"`
	Locale         string `json:"locale"`
}

func VariablesFor(c *models.Consultation) FollowUpVariables {
	return FollowUpVariables{
		ConsultationID: c.ID,
		ListingID:      c.ListingID,
		AgentID:        c.AgentID,
		TenantName:     c.TenantName,
		TenantEmail:    c.TenantEmail,
		TenantPhone:    c.TenantPhone,
		Message:        c.Message,
		PreferredDate:  c.PreferredDate,
		Locale:         c.Locale,
	}
}

func (w *Workflow) NotifyConsultation(ctx context.Context, c *models.Consultation) error {
	key, err := w.starter.StartProcess(ctx, w.processID, VariablesFor(c))
	if err != nil {
		return errors.NewNotificationSendFailedError("workflow", err)
	}
	w.logger.WithContext(ctx).Info("consultation follow-up started", map[string]interface{}{
		"consultationId":     c.ID,
		"processInstanceKey": key,
		"processId":          w.processID,
	})
	return nil
}
