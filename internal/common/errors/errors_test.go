package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *StandardError
		expected int
	}{
		{"quota exceeded", NewQuotaExceededError("chat", 5), http.StatusTooManyRequests},
		{"quota store down", NewQuotaStoreUnavailableError(stderrors.New("dial tcp")), http.StatusServiceUnavailable},
		{"missing token", NewTokenMissingError(), http.StatusUnauthorized},
		{"ownership", NewOwnershipMismatchError("listing", "l-1"), http.StatusForbidden},
		{"bad input", NewInputValidationFailedError("email: required"), http.StatusBadRequest},
		{"ai timeout", NewAITimeoutError(0), http.StatusGatewayTimeout},
		{"ai failure", NewAIGenerationFailedError(stderrors.New("500")), http.StatusBadGateway},
		{"not found", NewResourceNotFoundError("listings", "id: x"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err.Code))
		})
	}
}

func TestAsStandard(t *testing.T) {
	wrapped := fmt.Errorf("gate: %w", NewQuotaExceededError("chat", 5))
	stdErr := AsStandard(wrapped)
	assert.Equal(t, ErrCodeQuotaExceeded, stdErr.Code)
	assert.True(t, HasCode(wrapped, ErrCodeQuotaExceeded))

	plain := AsStandard(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewNotificationSendFailedError("push", stderrors.New("throttled")))
	assert.Equal(t, "NOTIFICATION_SEND_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "NOTIFICATION_SEND_FAILED", vars["originalErrorCode"])
	assert.Equal(t, true, vars["retryable"])

	nonRetryable := ConvertToBPMNError(NewInputValidationFailedError("x"))
	assert.Zero(t, nonRetryable.Retries)
}

func TestStreamInterruptedMetadata(t *testing.T) {
	err := NewAIStreamInterruptedError(128, stderrors.New("context deadline exceeded"))
	require.NotNil(t, err.Metadata)
	assert.Equal(t, 128, err.Metadata["deliveredBytes"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "QUOTA", GetErrorCategory(ErrCodeQuotaExceeded))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeTokenInvalid))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeGeocodeFailed))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeAITimeout))
	assert.Equal(t, "FOLLOW_UP", GetErrorCategory(ErrCodeCRMSyncFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInputValidationFailed))
}
