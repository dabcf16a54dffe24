// Package validation validates call arguments and configuration before any
// network work happens.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both return an
// *errors.AppError carrying per-field details.
//
// # Struct Tag Validation
//
//	type Item struct {
//	    URL string `json:"url" validate:"required"`
//	}
//	err := validation.Validate(item)
//
// # Programmatic Validation
//
//	v := validation.New().
//	    Required("file_name", part.FileName).
//	    NotNil("content", part.Content)
//	if err := v.Err(); err != nil { ... }
package validation
