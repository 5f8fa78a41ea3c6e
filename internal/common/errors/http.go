package errors

import (
	stderrors "errors"
	"net/http"
	"time"
)

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeQuotaExceeded:
		return http.StatusTooManyRequests
	case ErrCodeQuotaStoreUnavailable, ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	case ErrCodeUnknownFeature, ErrCodeResourceNotFound, ErrCodeIndexNotFound:
		return http.StatusNotFound
	case ErrCodeInputValidationFailed, ErrCodeInvalidFilterFormat:
		return http.StatusBadRequest
	case ErrCodeTokenMissing, ErrCodeTokenInvalid, "AUTHENTICATION_ERROR":
		return http.StatusUnauthorized
	case ErrCodeOwnershipMismatch, ErrCodeForbidden, ErrCodeSecretInvalid:
		return http.StatusForbidden
	case ErrCodeAITimeout, ErrCodeSearchTimeout, ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeAIGenerationFailed, ErrCodeAIStreamInterrupted, ErrCodeSearchQueryFailed,
		ErrCodeGeocodeFailed, ErrCodeExternalService, ErrCodeNotificationSendFailed, ErrCodeCRMSyncFailed:
		return http.StatusBadGateway
	case ErrCodeBusinessRule:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsStandard unwraps err into a StandardError, wrapping unknown errors as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HasCode reports whether err is a StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}
