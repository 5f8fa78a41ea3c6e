// internal/notify/dispatcher.go
package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/models"

	"github.com/google/uuid"
)

// Channels a consultation notification can go out on.
const (
	ChannelPush  = "push"
	ChannelEmail = "email"
)

// Publisher sends a push message to an SNS endpoint or topic.
type Publisher interface {
	PublishMessage(ctx context.Context, arn, subject, message string, attrs map[string]string) (string, error)
}

// Mailer sends a plain text email.
type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// AgentStore looks up agent contact details.
type AgentStore interface {
	Agent(ctx context.Context, id string) (*models.Agent, error)
}

// Dispatcher notifies the agent of a consultation on every configured channel.
type Dispatcher struct {
	agents   AgentStore
	push     Publisher
	mail     Mailer
	topicARN string
	logger   logger.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. push or mail may be nil to disable that channel.
// topicARN is the fallback push target for agents without a device endpoint.
func NewDispatcher(agents AgentStore, push Publisher, mail Mailer, topicARN string, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		agents:   agents,
		push:     push,
		mail:     mail,
		topicARN: topicARN,
		logger:   log,
		now:      time.Now,
	}
}

// Deliver sends the notification and reports every attempt. It fails only when no channel delivered.
func (d *Dispatcher) Deliver(ctx context.Context, c *models.Consultation) ([]models.Notification, error) {
	agent, err := d.agents.Agent(ctx, c.AgentID)
	if err != nil {
		return nil, err
	}

	results := []models.Notification{
		d.sendPush(ctx, agent, c),
		d.sendEmail(ctx, agent, c),
	}

	delivered := false
	var failures []string
	for _, n := range results {
		metrics.NotificationsSent.WithLabelValues(n.Channel, n.Status).Inc()
		switch n.Status {
		case statusSent:
			delivered = true
		case statusFailed:
			failures = append(failures, fmt.Sprintf("%s: %v", n.Channel, n.Payload["error"]))
		}
	}
	if delivered {
		return results, nil
	}

	if len(failures) == 0 {
		return results, errors.NewNotificationSendFailedError("all", fmt.Errorf("no notification channel configured for agent %s", agent.ID))
	}
	return results, errors.NewNotificationSendFailedError("all", stderrors.New(strings.Join(failures, "; ")))
}

// NotifyConsultation satisfies the consultation service's notifier.
func (d *Dispatcher) NotifyConsultation(ctx context.Context, c *models.Consultation) error {
	_, err := d.Deliver(ctx, c)
	return err
}

const (
	statusSent     = "sent"
	statusFailed   = "failed"
	statusDisabled = "disabled"
)

func (d *Dispatcher) record(channel string, agent *models.Agent, c *models.Consultation) models.Notification {
	return models.Notification{
		ID:             uuid.NewString(),
		RecipientID:    agent.ID,
		ConsultationID: c.ID,
		Channel:        channel,
		Status:         statusDisabled,
	}
}

func (d *Dispatcher) sendPush(ctx context.Context, agent *models.Agent, c *models.Consultation) models.Notification {
	n := d.record(ChannelPush, agent, c)
	target := agent.PushEndpointARN
	if target == "" {
		target = d.topicARN
	}
	if d.push == nil || target == "" {
		return n
	}

	msg := renderMessage(c)
	body, err := json.Marshal(map[string]interface{}{
		"default":        msg.Body,
		"title":          msg.Subject,
		"consultationId": c.ID,
		"listingId":      c.ListingID,
	})
	if err != nil {
		return d.failed(ctx, n, err)
	}

	id, err := d.push.PublishMessage(ctx, target, msg.Subject, string(body), map[string]string{
		"consultationId": c.ID,
		"agentId":        agent.ID,
	})
	if err != nil {
		return d.failed(ctx, n, err)
	}
	return d.sent(n, id)
}

func (d *Dispatcher) sendEmail(ctx context.Context, agent *models.Agent, c *models.Consultation) models.Notification {
	n := d.record(ChannelEmail, agent, c)
	if d.mail == nil || agent.Email == "" {
		return n
	}

	msg := renderMessage(c)
	id, err := d.mail.SendText(ctx, agent.Email, msg.Subject, msg.Body)
	if err != nil {
		return d.failed(ctx, n, err)
	}
	return d.sent(n, id)
}

func (d *Dispatcher) sent(n models.Notification, messageID string) models.Notification {
	n.Status = statusSent
	n.MessageID = messageID
	n.SentAt = d.now().UTC().Format(time.RFC3339)
	return n
}

func (d *Dispatcher) failed(ctx context.Context, n models.Notification, err error) models.Notification {
	d.logger.WithContext(ctx).Warn("notification channel failed", map[string]interface{}{
		"channel":        n.Channel,
		"consultationId": n.ConsultationID,
		"error":          err.Error(),
	})
	n.Status = statusFailed
	n.Payload = map[string]interface{}{"error": err.Error()}
	return n
}
