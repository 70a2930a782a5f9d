// Package shared holds the JSON envelope and error translation every
// handler uses, so transport behavior stays uniform across domains.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "aide/pkg/domain-errors"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates a domain error into the HTTP envelope. Unknown
// errors are masked as INTERNAL_ERROR; their detail stays in the logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.Code(err)
	status := statusFor(code)
	body := errorBody{Error: string(code)}
	var de *dErrors.Error
	if status < http.StatusInternalServerError && errors.As(err, &de) {
		body.Message = de.Message()
	}
	WriteJSON(w, status, body)
}

func statusFor(code dErrors.ErrorCode) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
