package notifyagent

import "rental-marketplace/internal/models"

// Input carries the follow-up process variables.
type Input struct {
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

type Output struct {
	AgentNotified bool                  `json:"agentNotified"`
	Notifications []models.Notification `json:"notifications"`
}

func (in *Input) consultation() *models.Consultation {
	return &models.Consultation{
		ID:            in.ConsultationID,
		ListingID:     in.ListingID,
		AgentID:       in.AgentID,
		TenantName:    in.TenantName,
		TenantEmail:   in.TenantEmail,
		TenantPhone:   in.TenantPhone,
		Message:       in.Message,
		PreferredDate: in.PreferredDate,
		Locale:        in.Locale,
	}
}
