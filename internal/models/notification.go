// internal/models/notification.go
package models

type Notification struct {
	ID             string                 `json:"id"`
	RecipientID    string                 `json:"recipientId"` // agent id
	ConsultationID string                 `json:"consultationId"`
	Channel        string                 `json:"channel"` // "push", "email"
	Status         string                 `json:"status"`  // "sent", "failed", "disabled"
	Payload        map[string]interface{} `json:"payload,omitempty"`
	MessageID      string                 `json:"messageId,omitempty"`
	SentAt         string                 `json:"sentAt,omitempty"`
}
