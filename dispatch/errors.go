package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/microhttp/errors"
)

// ErrorCode classifies dispatch failures.
type ErrorCode int

const (
	// ErrCodeValidation indicates malformed call arguments, reported before any I/O.
	ErrCodeValidation ErrorCode = iota
	// ErrCodeEncoding indicates the request payload could not be serialized.
	ErrCodeEncoding
	// ErrCodeDecoding indicates the response payload could not be deserialized.
	ErrCodeDecoding
	// ErrCodeHTTPStatus indicates a non-success status after response interceptors ran.
	ErrCodeHTTPStatus
	// ErrCodeTransport indicates the transport produced no usable response.
	ErrCodeTransport
	// ErrCodeInterceptor indicates an interceptor step failed.
	ErrCodeInterceptor
	// ErrCodeUnsupported indicates a batch item whose verb and body cannot be dispatched.
	ErrCodeUnsupported
	// ErrCodeInternal indicates a panic recovered while running a batch item.
	ErrCodeInternal
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeValidation:
		return "validation"
	case ErrCodeEncoding:
		return "encoding"
	case ErrCodeDecoding:
		return "decoding"
	case ErrCodeHTTPStatus:
		return "http_status"
	case ErrCodeTransport:
		return "transport"
	case ErrCodeInterceptor:
		return "interceptor"
	case ErrCodeUnsupported:
		return "unsupported"
	case ErrCodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 64 << 10

// Error is a classified dispatch failure.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// StatusCode is the HTTP status (ErrCodeHTTPStatus only).
	StatusCode int
	// Message describes the error.
	Message string
	// Body is the offending payload: the response body for status and decoding
	// failures, capped at 64 KiB.
	Body []byte
	// Retryable indicates whether the operation may succeed if repeated.
	Retryable bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("dispatch: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	} else {
		msg = fmt.Sprintf("dispatch: %s: %s", e.Code, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// AppError converts the failure into the application error taxonomy.
func (e *Error) AppError() *apperrors.AppError {
	switch e.Code {
	case ErrCodeValidation:
		if appErr, ok := apperrors.AsAppError(e.Err); ok {
			return appErr
		}
		return apperrors.Validation(e.Message).WithCause(e.Err)
	case ErrCodeEncoding:
		return apperrors.EncodingFailed(e.Err)
	case ErrCodeDecoding:
		return apperrors.DecodingFailed(string(e.Body), e.Err)
	case ErrCodeHTTPStatus:
		return apperrors.UpstreamStatus(e.StatusCode, string(e.Body))
	case ErrCodeTransport:
		return apperrors.TransportFailed(e.Err)
	case ErrCodeInterceptor:
		return apperrors.InterceptorFailed(e.Err)
	case ErrCodeUnsupported:
		return apperrors.Unsupported("batch", e.Message)
	default:
		return apperrors.Internal(e)
	}
}

func newValidationError(cause error) *Error {
	msg := "invalid arguments"
	if cause != nil {
		msg = cause.Error()
		if appErr, ok := apperrors.AsAppError(cause); ok {
			msg = appErr.Message
		}
	}
	return &Error{Code: ErrCodeValidation, Message: msg, Err: cause}
}

func newEncodingError(err error) *Error {
	return &Error{Code: ErrCodeEncoding, Message: "failed to encode request body", Err: err}
}

func newDecodingError(body []byte, err error) *Error {
	return &Error{Code: ErrCodeDecoding, Message: "failed to decode response body", Body: capBody(body), Err: err}
}

func newStatusError(statusCode int, body []byte) *Error {
	return &Error{
		Code:       ErrCodeHTTPStatus,
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
		Body:       body,
		Retryable:  statusCode == http.StatusTooManyRequests || statusCode >= 500,
	}
}

func newTransportError(msg string, err error) *Error {
	return &Error{Code: ErrCodeTransport, Message: msg, Retryable: true, Err: err}
}

func newUnsupportedError(msg string) *Error {
	return &Error{Code: ErrCodeUnsupported, Message: msg}
}

// transportError wraps a transport failure. Cancellation is returned as-is.
func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if isCancellation(err) {
		return err
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return newTransportError("HTTP request failed", err)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func capBody(b []byte) []byte {
	if len(b) > maxErrorBody {
		return b[:maxErrorBody]
	}
	return b
}

func codeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeValidation
}

// IsEncoding checks if an error is an encoding error.
func IsEncoding(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeEncoding
}

// IsDecoding checks if an error is a decoding error.
func IsDecoding(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeDecoding
}

// IsHTTPStatus checks if an error is a non-success status error.
func IsHTTPStatus(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeHTTPStatus
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeTransport
}

// IsInterceptor checks if an error came from an interceptor.
func IsInterceptor(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeInterceptor
}

// IsUnsupported checks if an error marks an unsupported batch item.
func IsUnsupported(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeUnsupported
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// StatusCode returns the HTTP status carried by a status error, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
