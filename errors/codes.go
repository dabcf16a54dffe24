package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Caller errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeUnsupported indicates an operation the dispatcher cannot perform.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_OPERATION"
)

// Payload errors
const (
	// ErrCodeEncodingFailed indicates a request payload could not be serialized.
	ErrCodeEncodingFailed ErrorCode = "ENCODING_FAILED"
	// ErrCodeDecodingFailed indicates a response payload could not be deserialized.
	ErrCodeDecodingFailed ErrorCode = "DECODING_FAILED"
)

// Upstream errors
const (
	// ErrCodeUpstreamStatus indicates the remote endpoint answered with a non-success status.
	ErrCodeUpstreamStatus ErrorCode = "UPSTREAM_STATUS"
	// ErrCodeTransportFailed indicates the request never produced a response.
	ErrCodeTransportFailed ErrorCode = "TRANSPORT_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCancelled indicates the caller cancelled the request.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Pipeline errors
const (
	// ErrCodeInterceptorFailed indicates a request or response interceptor failed.
	ErrCodeInterceptorFailed ErrorCode = "INTERCEPTOR_FAILED"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransportFailed: true,
	ErrCodeTimeout:         true,
	ErrCodeRateLimited:     true,
	ErrCodeInternal:        false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
