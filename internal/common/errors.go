package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("requested resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("resource conflict") // e.g., email already registered
	ErrInternalServer  = errors.New("internal server error")
	ErrValidation      = errors.New("validation failed")
	ErrTooManyRequests = errors.New("too many requests")
)

// Postgres SQLSTATE codes the data access layer translates.
const (
	PgUniqueViolation     = "23505"
	PgForeignKeyViolation = "23503"
	PgInvalidTextRepr     = "22P02"
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrTooManyRequests) {
		return http.StatusTooManyRequests
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PgUniqueViolation {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// ErrorCode returns the stable machine-readable code for an HTTP status.
func ErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL_ERROR"
	}
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
