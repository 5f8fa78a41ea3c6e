package crmleadcreate

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/zoho"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) SearchLeads(ctx context.Context, email string) ([]zoho.Lead, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zoho.Lead), args.Error(1)
}

func (m *MockCRM) CreateLead(ctx context.Context, lead *zoho.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *MockCRM) AddNote(ctx context.Context, leadID string, note zoho.Note) (string, error) {
	args := m.Called(ctx, leadID, note)
	return args.String(0), args.Error(1)
}

func testInput() *Input {
	return &Input{
		ConsultationID: "c-1",
		ListingID:      "l-1",
		AgentID:        "a-1",
		TenantName:     "Tan Mei Ling",
		TenantEmail:    " Mei@Example.com ",
		Message:        "Is parking included?",
		PreferredDate:  "2026-11-02",
	}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		setupMock func(m *MockCRM)
		validate  func(t *testing.T, out *Output, err error, m *MockCRM)
	}{
		{
			name:  "creates lead when none exists",
			input: testInput(),
			setupMock: func(m *MockCRM) {
				m.On("SearchLeads", mock.Anything, "mei@example.com").Return(nil, nil)
				m.On("CreateLead", mock.Anything, mock.MatchedBy(func(l *zoho.Lead) bool {
					return l.FirstName == "Tan" && l.LastName == "Mei Ling" &&
						l.Source == defaultLeadSource && l.ListingID == "l-1"
				})).Return("zl-9", nil)
			},
			validate: func(t *testing.T, out *Output, err error, m *MockCRM) {
				require.NoError(t, err)
				assert.Equal(t, &Output{LeadID: "zl-9", Created: true}, out)
				m.AssertNotCalled(t, "AddNote", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "adds note to existing lead",
			input: testInput(),
			setupMock: func(m *MockCRM) {
				m.On("SearchLeads", mock.Anything, "mei@example.com").
					Return([]zoho.Lead{{ID: "zl-1", Email: "mei@example.com"}}, nil)
				m.On("AddNote", mock.Anything, "zl-1", mock.MatchedBy(func(n zoho.Note) bool {
					return n.Title == "New consultation request" &&
						strings.Contains(n.Content, "Preferred date: 2026-11-02")
				})).Return("note-1", nil)
			},
			validate: func(t *testing.T, out *Output, err error, m *MockCRM) {
				require.NoError(t, err)
				assert.Equal(t, &Output{LeadID: "zl-1", Created: false}, out)
				m.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything)
			},
		},
		{
			name:  "search failure",
			input: testInput(),
			setupMock: func(m *MockCRM) {
				m.On("SearchLeads", mock.Anything, mock.Anything).Return(nil, stderrors.New("401 INVALID_TOKEN"))
			},
			validate: func(t *testing.T, out *Output, err error, _ *MockCRM) {
				assert.Nil(t, out)
				assert.True(t, errors.HasCode(err, errors.ErrCodeCRMSyncFailed))
			},
		},
		{
			name:  "create failure",
			input: testInput(),
			setupMock: func(m *MockCRM) {
				m.On("SearchLeads", mock.Anything, mock.Anything).Return(nil, nil)
				m.On("CreateLead", mock.Anything, mock.Anything).Return("", stderrors.New("DUPLICATE_DATA"))
			},
			validate: func(t *testing.T, _ *Output, err error, _ *MockCRM) {
				assert.True(t, errors.HasCode(err, errors.ErrCodeCRMSyncFailed))
			},
		},
		{
			name:      "missing email",
			input:     &Input{ConsultationID: "c-1"},
			setupMock: func(*MockCRM) {},
			validate: func(t *testing.T, _ *Output, err error, m *MockCRM) {
				assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed))
				m.AssertNotCalled(t, "SearchLeads", mock.Anything, mock.Anything)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockCRM)
			tt.setupMock(m)
			h := NewHandler(&Config{Timeout: 5 * time.Second, LeadSource: defaultLeadSource}, m, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), tt.input)
			tt.validate(t, out, err, m)
			m.AssertExpectations(t)
		})
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"", "", "Unknown"},
		{"Aiko", "", "Aiko"},
		{"Tan Mei Ling", "Tan", "Mei Ling"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first)
		assert.Equal(t, tt.last, last)
	}
}
