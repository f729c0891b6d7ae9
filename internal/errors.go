package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount          ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidEmailFormat     ErrorCode = "INVALID_EMAIL_FORMAT"
	ErrCodeInvalidReferenceFormat ErrorCode = "INVALID_REFERENCE_FORMAT"
	ErrCodeInvalidEventSource     ErrorCode = "INVALID_EVENT_SOURCE"
	ErrCodeInvalidEmailType       ErrorCode = "INVALID_EMAIL_TYPE"
	ErrCodeInvalidAttemptCount    ErrorCode = "INVALID_ATTEMPT_COUNT"
	ErrCodeAmountTooLow           ErrorCode = "AMOUNT_TOO_LOW"
	ErrCodeAmountTooHigh          ErrorCode = "AMOUNT_TOO_HIGH"

	ErrCodeDuplicateReferenceCode ErrorCode = "DUPLICATE_REFERENCE_CODE"
	ErrCodeDuplicateCorrelationID ErrorCode = "DUPLICATE_CORRELATION_ID"
	ErrCodeDuplicateEventID       ErrorCode = "DUPLICATE_EVENT_ID"
	ErrCodeDuplicateProviderMsgID ErrorCode = "DUPLICATE_PROVIDER_MSG_ID"
	ErrCodeDuplicateEmail         ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateName          ErrorCode = "DUPLICATE_NAME"

	ErrCodeDonationNotFound     ErrorCode = "DONATION_NOT_FOUND"
	ErrCodeEmailLogNotFound     ErrorCode = "EMAIL_LOG_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeOrganizationNotFound ErrorCode = "ORGANIZATION_NOT_FOUND"
	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	ErrCodeUnauthorizedAccess   ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeReferentialBreak     ErrorCode = "REFERENTIAL_INTEGRITY"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrDonationNotFound = NewNotFoundError("Donation not found", ErrCodeDonationNotFound)

	// ErrDuplicateSubmission signals that a donation with the same
	// reference_code or correlation_id already exists; the caller should
	// reuse the original record instead of retrying.
	ErrDuplicateSubmission = NewConflictError("duplicate submission, reuse original", ErrCodeDuplicateReferenceCode)

	ErrInvalidTransition  = NewConflictError("donation is in a terminal status", ErrCodeInvalidTransition)
	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access to donation", ErrCodeUnauthorizedAccess)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

// IsUniquenessViolation reports whether err is a conflict on one of the
// duplicate-prevention keys.
func IsUniquenessViolation(err error) bool {
	appErr, ok := IsAppError(err)
	if !ok || appErr.Type != ErrorTypeConflict {
		return false
	}
	switch appErr.Code {
	case ErrCodeDuplicateReferenceCode, ErrCodeDuplicateCorrelationID,
		ErrCodeDuplicateEventID, ErrCodeDuplicateProviderMsgID,
		ErrCodeDuplicateEmail, ErrCodeDuplicateName:
		return true
	}
	return false
}

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
