// Package errors provides the application error type used to report dispatch
// failures. AppError carries a machine-readable code, an HTTP status hint, and
// retryable detection; ToResponse renders it as an RFC 7807 style body.
package errors
