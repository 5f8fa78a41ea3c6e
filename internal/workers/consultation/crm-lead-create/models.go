package crmleadcreate

type Input struct {
	ConsultationID string `json:"consultationId"`
	ListingID      string `json:"listingId"`
	AgentID        string `json:"agentId"`
	TenantName     string `json:"tenantName"`
	TenantEmail    string `json:"tenantEmail"`
	TenantPhone    string `json:"tenantPhone,omitempty"`
	Message        string `json:"message,omitempty"`
	PreferredDate  string `json:"preferredDate,omitempty"`
}

type Output struct {
	LeadID  string `json:"leadId"`
	Created bool   `json:"created"`
}
