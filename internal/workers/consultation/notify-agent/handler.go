// internal/workers/consultation/notify-agent/handler.go
package notifyagent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "consultation.notify-agent"
)

// Deliverer sends the agent notification on every configured channel.
type Deliverer interface {
	Deliver(ctx context.Context, c *models.Consultation) ([]models.Notification, error)
}

// NotifiedMarker records that the agent was told about a consultation.
type NotifiedMarker interface {
	MarkNotified(ctx context.Context, id string) error
}

type Handler struct {
	config     *Config
	dispatcher Deliverer
	store      NotifiedMarker
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, dispatcher Deliverer, store NotifiedMarker, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		dispatcher: dispatcher,
		store:      store,
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

// Execute notifies the agent and marks the consultation notified.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ConsultationID == "" || input.AgentID == "" {
		return nil, errors.NewInputValidationFailedError("consultationId and agentId are required")
	}

	notifications, err := h.dispatcher.Deliver(ctx, input.consultation())
	if err != nil {
		return nil, err
	}

	if err := h.store.MarkNotified(ctx, input.ConsultationID); err != nil {
		// the agent already has the message; a retry would notify twice
		h.logger.Warn("failed to mark consultation notified", map[string]interface{}{
			"consultationId": input.ConsultationID,
			"error":          err.Error(),
		})
	}

	return &Output{AgentNotified: true, Notifications: notifications}, nil
}
