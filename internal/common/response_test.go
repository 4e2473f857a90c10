package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.Error
}

func TestRespondWithAppError_HidesInternals(t *testing.T) {
	w := httptest.NewRecorder()
	status := RespondWithAppError(w, fmt.Errorf("select tasks: %w", errors.New(`relation "tasks" does not exist`)))

	if status != http.StatusInternalServerError || w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d/%d", status, w.Code)
	}
	body := decodeError(t, w)
	if body.Code != "INTERNAL_ERROR" || body.Message != "internal server error" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if strings.Contains(w.Body.String(), "relation") {
		t.Fatalf("store error leaked: %s", w.Body.String())
	}
}

func TestRespondWithAppError_NotFound(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithAppError(w, fmt.Errorf("task not found: %w", ErrNotFound))

	body := decodeError(t, w)
	if w.Code != http.StatusNotFound || body.Code != "NOT_FOUND" {
		t.Fatalf("unexpected response %d %+v", w.Code, body)
	}
	if body.Message != "task not found: requested resource not found" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

type titleRequest struct {
	Title string `json:"title"`
}

func (r titleRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.Title, validation.Required))
}

func TestRespondWithAppError_ValidationDetails(t *testing.T) {
	req := titleRequest{}
	err := NewValidationError(req.Validate())

	w := httptest.NewRecorder()
	RespondWithAppError(w, err)

	body := decodeError(t, w)
	if w.Code != http.StatusBadRequest || body.Code != "VALIDATION_FAILED" {
		t.Fatalf("unexpected response %d %+v", w.Code, body)
	}
	if body.Details["title"] == "" {
		t.Fatalf("expected title detail, got %+v", body.Details)
	}
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"ship it"}`))
	var ok titleRequest
	if err := DecodeAndValidate(r, &ok); err != nil {
		t.Fatalf("expected valid body, got %v", err)
	}
	if ok.Title != "ship it" {
		t.Fatalf("unexpected decode %+v", ok)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	var broken titleRequest
	if err := DecodeAndValidate(r, &broken); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":""}`))
	var blank titleRequest
	if err := DecodeAndValidate(r, &blank); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
