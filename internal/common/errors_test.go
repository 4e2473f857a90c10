package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestHTTPStatusFromError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found wrapped", fmt.Errorf("task lookup: %w", ErrNotFound), http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"conflict", ErrConflict, http.StatusConflict},
		{"validation", &ValidationError{Fields: map[string]string{"title": "cannot be blank"}}, http.StatusBadRequest},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"rate limited", ErrTooManyRequests, http.StatusTooManyRequests},
		{"pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: PgUniqueViolation}), http.StatusConflict},
		{"unknown", errors.New("connection reset by peer"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatusFromError(tc.err); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(http.StatusForbidden); got != "FORBIDDEN" {
		t.Fatalf("unexpected code %q", got)
	}
	if got := ErrorCode(http.StatusBadGateway); got != "INTERNAL_ERROR" {
		t.Fatalf("unexpected code %q", got)
	}
}
