// Package errors provides standardized error handling for the SMS command pipeline.
package errors

import "fmt"

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Pipeline error taxonomy. Transport/auth failures stop the request before any
// business logic runs; domain failures surface as user-facing guidance; service
// failures collapse into a single generic retry message.
const (
	ErrCodeMalformedRequest   ErrorCode = "MALFORMED_REQUEST"
	ErrCodeSignatureInvalid   ErrorCode = "SIGNATURE_INVALID"
	ErrCodeSenderUnauthorized ErrorCode = "SENDER_UNAUTHORIZED"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	ErrCodeBookNotFound     ErrorCode = "BOOK_NOT_FOUND"
	ErrCodeNoActiveBook     ErrorCode = "NO_ACTIVE_BOOK"
	ErrCodeInvalidPage      ErrorCode = "INVALID_PAGE"
	ErrCodeInvalidPercent   ErrorCode = "INVALID_PERCENT"
	ErrCodeAmbiguousCommand ErrorCode = "AMBIGUOUS_COMMAND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSettingsLoadFailed       ErrorCode = "SETTINGS_LOAD_FAILED"
	ErrCodeServiceUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
)

// StandardError represents a structured application error. Package-level
// instances double as sentinels: wrap them with fmt.Errorf("%w: ...") and
// compare with errors.Is.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// New creates a non-retryable structured error.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{Code: code, Message: message}
}

// NewRetryable creates a structured error the user may retry. The pipeline
// itself never retries automatically.
func NewRetryable(code ErrorCode, message string) *StandardError {
	return &StandardError{Code: code, Message: message, Retryable: true}
}

// IsRetryable reports whether err or anything it wraps is retryable.
func IsRetryable(err error) bool {
	for err != nil {
		if se, ok := err.(*StandardError); ok {
			return se.Retryable
		}
		err = unwrap(err)
	}
	return false
}

// CodeOf extracts the ErrorCode from err or anything it wraps, or empty when
// no structured error is found.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if se, ok := err.(*StandardError); ok {
			return se.Code
		}
		err = unwrap(err)
	}
	return ""
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
