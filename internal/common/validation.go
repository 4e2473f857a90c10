package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidationError carries per-field messages and unwraps to ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError converts the result of an ozzo Validate call.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for name, ferr := range fieldErrs {
			fields[name] = ferr.Error()
		}
		return &ValidationError{Fields: fields}
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return fmt.Errorf("validate request: %w", internal)
	}
	return &ValidationError{Fields: map[string]string{"body": err.Error()}}
}

// DecodeAndValidate reads a JSON body into dst and runs its field rules.
func DecodeAndValidate(r *http.Request, dst validation.Validatable) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", ErrBadRequest)
		}
		return fmt.Errorf("%w: invalid request payload", ErrBadRequest)
	}
	return NewValidationError(dst.Validate())
}
