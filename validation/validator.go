package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/kbukum/microhttp/errors"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates failed checks. Chain the checks and finish with Err.
type Validator struct {
	fields []FieldError
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

// AddError records a failure for field.
func (v *Validator) AddError(field, message string) *Validator {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
	return v
}

// Fields returns the failures recorded so far.
func (v *Validator) Fields() []FieldError { return v.fields }

// Err returns an INVALID_INPUT *errors.AppError listing every failure, or
// nil when all checks passed.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return fieldsError(v.fields)
}

// Required fails on an empty or blank string.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// NotNil fails on nil, including typed nil pointers, maps, slices, channels
// and funcs stored in an interface.
func (v *Validator) NotNil(field string, value any) *Validator {
	if value == nil {
		return v.AddError(field, "is required")
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			v.AddError(field, "is required")
		}
	}
	return v
}

// URL fails when a non-empty value does not parse, or when absolute is set
// and the URL lacks a scheme or host.
func (v *Validator) URL(field, value string, absolute bool) *Validator {
	if value == "" {
		return v
	}
	u, err := url.Parse(value)
	switch {
	case err != nil:
		v.AddError(field, "must be a valid URL")
	case absolute && (u.Scheme == "" || u.Host == ""):
		v.AddError(field, "must be an absolute URL")
	}
	return v
}

// Min fails when value is below floor.
func (v *Validator) Min(field string, value, floor int) *Validator {
	if value < floor {
		v.AddError(field, fmt.Sprintf("must be at least %d", floor))
	}
	return v
}

// OneOf fails when a non-empty value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// Custom fails with message when ok is false.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Required checks a single field.
func Required(field, value string) error {
	return New().Required(field, value).Err()
}

func fieldsError(fields []FieldError) *errors.AppError {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Field + ": " + f.Message
	}
	appErr := errors.Validation(strings.Join(parts, "; "))
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}
