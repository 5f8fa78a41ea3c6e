// internal/models/consultation.go
package models

import "time"

type Consultation struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listingId"`
	AgentID       string    `json:"agentId"`
	TenantName    string    `json:"tenantName"`
	TenantEmail   string    `json:"tenantEmail"`
	TenantPhone   string    `json:"tenantPhone,omitempty"`
	Message       string    `json:"message,omitempty"`
	PreferredDate string    `json:"preferredDate,omitempty"` // YYYY-MM-DD
	Locale        string    `json:"locale"`
	Notified      bool      `json:"notified"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Agent struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	PushEndpointARN string `json:"pushEndpointArn,omitempty"`
}
