package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/codesense-dev/codesense/domain/coderepo"
	"github.com/codesense-dev/codesense/internal/database"
)

// JSONAPIError represents a JSON:API error object.
type JSONAPIError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	ID     string `json:"id,omitempty"`
}

// JSONAPIErrorResponse wraps one or more JSON:API errors.
type JSONAPIErrorResponse struct {
	Errors []JSONAPIError `json:"errors"`
}

// WriteError writes a JSON:API formatted error response, mapping err to an
// HTTP status by type/sentinel.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"
	detail := err.Error()

	var apiErr *APIError
	var serverErr *ServerError
	var authErr *AuthenticationError

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code()
		title = "API Error"
		detail = apiErr.Message()
	case errors.As(err, &serverErr):
		status = serverErr.StatusCode()
		title = "Server Error"
		detail = serverErr.Message()
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
		title = "Authentication Failed"
		detail = authErr.Error()
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		title = "Not Found"
	case errors.Is(err, coderepo.ErrInvalidURL), errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
		title = "Validation Error"
	}

	correlationID := r.Header.Get(correlationHeader)

	if logger != nil {
		logger.Error("request error",
			slog.String("correlation_id", correlationID),
			slog.Int("status", status),
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}

	resp := JSONAPIErrorResponse{
		Errors: []JSONAPIError{
			{
				Status: http.StatusText(status),
				Title:  title,
				Detail: detail,
				ID:     correlationID,
			},
		},
	}

	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a plain JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
