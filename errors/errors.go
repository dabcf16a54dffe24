package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// maxDetailText bounds raw payload text copied into error details.
const maxDetailText = 2048

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Caller errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Unsupported creates a new AppError for an operation the dispatcher cannot perform.
func Unsupported(operation, reason string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupported, Message: fmt.Sprintf("Unsupported operation %s: %s", operation, reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"operation": operation},
	}
}

// --- Payload errors ---

// EncodingFailed creates a new AppError for a payload that could not be serialized.
func EncodingFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeEncodingFailed, Message: "Failed to serialize request payload.",
		HTTPStatus: http.StatusBadRequest, Retryable: false, Cause: cause,
	}
}

// DecodingFailed creates a new AppError for a response body that could not be
// deserialized. The offending text is kept (truncated) for diagnostics.
func DecodingFailed(content string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecodingFailed, Message: "Failed to deserialize response payload.",
		HTTPStatus: http.StatusBadGateway, Retryable: false, Cause: cause,
		Details: map[string]any{"content": truncate(content)},
	}
}

// --- Upstream errors ---

// UpstreamStatus creates a new AppError for a non-success response status.
func UpstreamStatus(statusCode int, body string) *AppError {
	details := map[string]any{"status_code": statusCode}
	if body != "" {
		details["body"] = truncate(body)
	}
	return &AppError{
		Code: ErrCodeUpstreamStatus, Message: fmt.Sprintf("Upstream responded with HTTP %d.", statusCode),
		HTTPStatus: http.StatusBadGateway,
		Retryable:  statusCode == http.StatusTooManyRequests || statusCode >= 500,
		Details:    details,
	}
}

// TransportFailed creates a new AppError for a request that produced no response.
func TransportFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransportFailed, Message: "HTTP request failed.",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Cancelled creates a new AppError for a request cancelled by its caller.
func Cancelled(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: "The request was cancelled.",
		HTTPStatus: 499, Retryable: false, Cause: cause,
	}
}

// RateLimited creates a new AppError for too many requests.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

// --- Pipeline errors ---

// InterceptorFailed creates a new AppError for a failing interceptor step.
func InterceptorFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInterceptorFailed, Message: "Interceptor chain aborted the request.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Converter is implemented by typed errors that know their AppError form.
type Converter interface {
	AppError() *AppError
}

// FromError converts any error into an AppError. The outermost Converter
// wins over an AppError deeper in the chain; context errors map to
// Cancelled/Timeout; everything else is Internal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	var conv Converter
	if stderrors.As(err, &conv) {
		return conv.AppError()
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return Cancelled(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return Timeout("request").WithCause(err)
	}
	return Internal(err)
}

func truncate(s string) string {
	if len(s) <= maxDetailText {
		return s
	}
	return s[:maxDetailText] + "..."
}
