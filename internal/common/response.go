package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: ErrorBody{Code: ErrorCode(code), Message: message}})
}

// RespondWithAppError renders err with the status its class maps to. Anything that maps to
// 500 is rendered with a generic message so store or mail internals never reach the client.
func RespondWithAppError(w http.ResponseWriter, err error) int {
	status := HTTPStatusFromError(err)
	body := ErrorBody{Code: ErrorCode(status), Message: err.Error()}

	var verr *ValidationError
	if errors.As(err, &verr) {
		body.Code = "VALIDATION_FAILED"
		body.Message = ErrValidation.Error()
		body.Details = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		body.Message = ErrInternalServer.Error()
	}

	RespondWithJSON(w, status, ErrorResponse{Error: body})
	return status
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"failed to marshal JSON response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
