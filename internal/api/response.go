package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"taskmanager/internal/constants"
	"taskmanager/internal/services"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, constants.ErrCodeInvalidRequest, message)
}

func unauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, constants.ErrCodeUnauthorized, message)
}

func notFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, constants.ErrCodeNotFound, message)
}

func payloadTooLarge(w http.ResponseWriter, message string) {
	writeError(w, http.StatusRequestEntityTooLarge, constants.ErrCodePayloadTooLarge, message)
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, constants.ErrCodeInternal, "An internal error occurred")
}

// writeServiceError maps the services error taxonomy onto HTTP responses.
// Unknown errors are logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *services.ValidationError
	var authErr *services.AuthError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    constants.ErrCodeInvalidRequest,
				Message: validationErr.Message,
				Field:   validationErr.Field,
			},
		})
	case errors.Is(err, services.ErrUnableToLogin):
		writeError(w, http.StatusUnauthorized, constants.ErrCodeInvalidCredentials, services.ErrUnableToLogin.Message)
	case errors.As(err, &authErr):
		unauthorized(w, authErr.Message)
	case errors.Is(err, services.ErrNotFound):
		notFound(w, "Not found")
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		internalError(w)
	}
}
