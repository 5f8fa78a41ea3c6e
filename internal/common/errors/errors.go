// Package errors provides the standardized error type shared by the HTTP API and the workflow workers.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Quota
	ErrCodeQuotaExceeded         ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeQuotaStoreUnavailable ErrorCode = "QUOTA_STORE_UNAVAILABLE"
	ErrCodeUnknownFeature        ErrorCode = "UNKNOWN_FEATURE"

	// Search and geocoding
	ErrCodeSearchQueryFailed   ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout       ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound       ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeInvalidFilterFormat ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeGeocodeFailed       ErrorCode = "GEOCODE_FAILED"

	// AI relay
	ErrCodeAITimeout           ErrorCode = "AI_TIMEOUT"
	ErrCodeAIGenerationFailed  ErrorCode = "AI_GENERATION_FAILED"
	ErrCodeAIStreamInterrupted ErrorCode = "AI_STREAM_INTERRUPTED"

	// Authorization
	ErrCodeTokenMissing      ErrorCode = "TOKEN_MISSING"
	ErrCodeTokenInvalid      ErrorCode = "TOKEN_INVALID"
	ErrCodeOwnershipMismatch ErrorCode = "OWNERSHIP_MISMATCH"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeSecretInvalid     ErrorCode = "REVALIDATE_SECRET_INVALID"

	// Input
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	// Storage
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeResourceNotFound         ErrorCode = "RESOURCE_NOT_FOUND"

	// Follow-up
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCRMSyncFailed          ErrorCode = "CRM_SYNC_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeBusinessRule    ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewQuotaExceededError reports a denied gated action. It is an expected outcome, not a fault.
func NewQuotaExceededError(feature string, ceiling int) *StandardError {
	return newError(ErrCodeQuotaExceeded,
		"Daily limit reached",
		fmt.Sprintf("feature: %s, ceiling: %d", feature, ceiling),
		false,
	)
}

// NewQuotaStoreUnavailableError is returned when the usage store cannot be read or written.
// The gate denies in that case.
func NewQuotaStoreUnavailableError(err error) *StandardError {
	return newError(ErrCodeQuotaStoreUnavailable, "Usage store unavailable", err.Error(), true)
}

func NewUnknownFeatureError(feature string) *StandardError {
	return newError(ErrCodeUnknownFeature, "Feature is not rate limited", fmt.Sprintf("feature: %s", feature), false)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed,
		"Search query failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		true,
	)
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Search query timeout", fmt.Sprintf("index: %s", index), true)
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// NewInvalidFilterFormatError creates a non-retryable filter format error.
func NewInvalidFilterFormatError(details string) *StandardError {
	return newError(ErrCodeInvalidFilterFormat, "Invalid filter format", details, false)
}

func NewGeocodeFailedError(err error) *StandardError {
	return newError(ErrCodeGeocodeFailed, "Geocoding failed", err.Error(), true)
}

// NewAITimeoutError creates a retryable generation timeout error.
func NewAITimeoutError(timeout time.Duration) *StandardError {
	return newError(ErrCodeAITimeout,
		"AI generation timeout",
		fmt.Sprintf("call exceeded %s", timeout),
		true,
	)
}

func NewAIGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeAIGenerationFailed, "AI generation failed", err.Error(), true)
}

// NewAIStreamInterruptedError reports a stream that failed after text was already delivered.
func NewAIStreamInterruptedError(delivered int, err error) *StandardError {
	return newError(ErrCodeAIStreamInterrupted,
		"AI stream interrupted",
		err.Error(),
		true,
	).WithMetadata("deliveredBytes", delivered)
}

func NewTokenMissingError() *StandardError {
	return newError(ErrCodeTokenMissing, "Bearer token required", "Authorization header is missing or not a bearer token", false)
}

func NewTokenInvalidError(details string) *StandardError {
	return newError(ErrCodeTokenInvalid, "Token is not active", details, false)
}

// NewOwnershipMismatchError rejects an action on a resource the caller does not own.
func NewOwnershipMismatchError(resource, id string) *StandardError {
	return newError(ErrCodeOwnershipMismatch,
		"Caller does not own this resource",
		fmt.Sprintf("%s: %s", resource, id),
		false,
	)
}

func NewForbiddenError(details string) *StandardError {
	return newError(ErrCodeForbidden, "Forbidden", details, false)
}

func NewSecretInvalidError() *StandardError {
	return newError(ErrCodeSecretInvalid, "Invalid revalidation secret", "", false)
}

// NewInputValidationFailedError creates a non-retryable input validation error.
func NewInputValidationFailedError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Input validation failed", details, false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed,
		"Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		true,
	)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed,
		"Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		true,
	)
}

func NewCRMSyncFailedError(err error) *StandardError {
	return newError(ErrCodeCRMSyncFailed, "CRM lead sync failed", err.Error(), true)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError("AUTHENTICATION_ERROR", "Authentication failed", details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for workflow jobs.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeCRMSyncFailed,
		ErrCodeExternalService:
		return 3
	case ErrCodeTimeout, ErrCodeSearchTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "QUOTA") || code == ErrCodeUnknownFeature:
		return "QUOTA"
	case strings.Contains(codeStr, "TOKEN") || strings.Contains(codeStr, "OWNERSHIP") ||
		strings.Contains(codeStr, "SECRET") || code == ErrCodeForbidden:
		return "AUTH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_EXECUTION"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX") || strings.Contains(codeStr, "GEOCODE"):
		return "SEARCH"
	case strings.HasPrefix(codeStr, "AI_"):
		return "AI"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "CRM"):
		return "FOLLOW_UP"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
