package notify

import (
	"context"
	stderrors "errors"
	"testing"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockAgents struct {
	mock.Mock
}

func (m *MockAgents) Agent(ctx context.Context, id string) (*models.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishMessage(ctx context.Context, arn, subject, message string, attrs map[string]string) (string, error) {
	args := m.Called(ctx, arn, subject, message, attrs)
	return args.String(0), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendText(ctx context.Context, to, subject, body string) (string, error) {
	args := m.Called(ctx, to, subject, body)
	return args.String(0), args.Error(1)
}

type MockStarter struct {
	mock.Mock
}

func (m *MockStarter) StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error) {
	args := m.Called(ctx, processID, variables)
	return args.Get(0).(int64), args.Error(1)
}

// ==========================
// Helpers
// ==========================

func consultation() *models.Consultation {
	return &models.Consultation{
		ID:          "c-1",
		ListingID:   "l-1",
		AgentID:     "a-1",
		TenantName:  "Aiko",
		TenantEmail: "aiko@example.com",
		Locale:      "en",
	}
}

func agent(endpoint string) *models.Agent {
	return &models.Agent{ID: "a-1", Name: "Farah", Email: "farah@agency.my", PushEndpointARN: endpoint}
}

func statuses(ns []models.Notification) map[string]string {
	out := make(map[string]string, len(ns))
	for _, n := range ns {
		out[n.Channel] = n.Status
	}
	return out
}

// ==========================
// Dispatcher
// ==========================

func TestDispatcherDeliver(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		topic    string
		setup    func(p *MockPublisher, m *MockMailer)
		validate func(t *testing.T, ns []models.Notification, err error)
	}{
		{
			name:     "push to device endpoint and email",
			endpoint: "arn:endpoint",
			setup: func(p *MockPublisher, m *MockMailer) {
				p.On("PublishMessage", mock.Anything, "arn:endpoint", "New consultation request", mock.Anything,
					map[string]string{"consultationId": "c-1", "agentId": "a-1"}).Return("msg-1", nil)
				m.On("SendText", mock.Anything, "farah@agency.my", "New consultation request", mock.Anything).Return("ses-1", nil)
			},
			validate: func(t *testing.T, ns []models.Notification, err error) {
				require.NoError(t, err)
				assert.Equal(t, map[string]string{ChannelPush: "sent", ChannelEmail: "sent"}, statuses(ns))
				assert.Equal(t, "msg-1", ns[0].MessageID)
				assert.NotEmpty(t, ns[0].SentAt)
			},
		},
		{
			name:  "falls back to the agent topic",
			topic: "arn:topic",
			setup: func(p *MockPublisher, m *MockMailer) {
				p.On("PublishMessage", mock.Anything, "arn:topic", mock.Anything, mock.Anything, mock.Anything).Return("msg-2", nil)
				m.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-2", nil)
			},
			validate: func(t *testing.T, ns []models.Notification, err error) {
				require.NoError(t, err)
				assert.Equal(t, "sent", statuses(ns)[ChannelPush])
			},
		},
		{
			name:     "one channel is enough",
			endpoint: "arn:endpoint",
			setup: func(p *MockPublisher, m *MockMailer) {
				p.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("", stderrors.New("EndpointDisabled"))
				m.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-3", nil)
			},
			validate: func(t *testing.T, ns []models.Notification, err error) {
				require.NoError(t, err)
				assert.Equal(t, map[string]string{ChannelPush: "failed", ChannelEmail: "sent"}, statuses(ns))
				assert.Equal(t, "EndpointDisabled", ns[0].Payload["error"])
			},
		},
		{
			name:     "every channel failed",
			endpoint: "arn:endpoint",
			setup: func(p *MockPublisher, m *MockMailer) {
				p.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("", stderrors.New("throttled"))
				m.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("", stderrors.New("MessageRejected"))
			},
			validate: func(t *testing.T, _ []models.Notification, err error) {
				require.True(t, errors.HasCode(err, errors.ErrCodeNotificationSendFailed))
				details := errors.AsStandard(err).Details
				assert.Contains(t, details, "push: throttled")
				assert.Contains(t, details, "email: MessageRejected")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agents, pub, mail := &MockAgents{}, &MockPublisher{}, &MockMailer{}
			agents.On("Agent", mock.Anything, "a-1").Return(agent(tt.endpoint), nil)
			tt.setup(pub, mail)

			d := NewDispatcher(agents, pub, mail, tt.topic, logger.NewTestLogger(t))
			ns, err := d.Deliver(context.Background(), consultation())

			tt.validate(t, ns, err)
			pub.AssertExpectations(t)
			mail.AssertExpectations(t)
		})
	}
}

func TestDispatcher_NoChannels(t *testing.T) {
	agents := &MockAgents{}
	agents.On("Agent", mock.Anything, "a-1").Return(&models.Agent{ID: "a-1"}, nil)

	d := NewDispatcher(agents, nil, nil, "", logger.NewTestLogger(t))
	ns, err := d.Deliver(context.Background(), consultation())

	assert.True(t, errors.HasCode(err, errors.ErrCodeNotificationSendFailed))
	assert.Equal(t, map[string]string{ChannelPush: "disabled", ChannelEmail: "disabled"}, statuses(ns))
}

func TestDispatcher_UnknownAgent(t *testing.T) {
	agents := &MockAgents{}
	agents.On("Agent", mock.Anything, "a-1").Return(nil, errors.NewResourceNotFoundError("agents", "a-1"))

	d := NewDispatcher(agents, &MockPublisher{}, &MockMailer{}, "", logger.NewTestLogger(t))
	err := d.NotifyConsultation(context.Background(), consultation())
	assert.True(t, errors.HasCode(err, errors.ErrCodeResourceNotFound))
}

func TestRenderMessage_Japanese(t *testing.T) {
	c := consultation()
	c.Locale = "ja"
	c.PreferredDate = "2026-11-02"

	msg := renderMessage(c)
	assert.Equal(t, "新しい相談リクエスト", msg.Subject)
	assert.Contains(t, msg.Body, "希望日: 2026-11-02")
}

// ==========================
// Workflow
// ==========================

func TestWorkflowNotify(t *testing.T) {
	starter := &MockStarter{}
	starter.On("StartProcess", mock.Anything, "consultation-follow-up", VariablesFor(consultation())).Return(int64(2251799813685249), nil)

	w := NewWorkflow(starter, "consultation-follow-up", logger.NewTestLogger(t))
	require.NoError(t, w.NotifyConsultation(context.Background(), consultation()))
	starter.AssertExpectations(t)
}

func TestWorkflowNotify_StartFailure(t *testing.T) {
	starter := &MockStarter{}
	starter.On("StartProcess", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), stderrors.New("NOT_FOUND: process not deployed"))

	w := NewWorkflow(starter, "consultation-follow-up", logger.NewTestLogger(t))
	err := w.NotifyConsultation(context.Background(), consultation())
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotificationSendFailed))
}
