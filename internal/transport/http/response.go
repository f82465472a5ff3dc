package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quiz-api/internal/domain"
)

// envelope is the body shape of every API response.
type envelope struct {
	Success        bool        `json:"success"`
	Data           interface{} `json:"data,omitempty"`
	Message        interface{} `json:"message,omitempty"`
	Score          *int        `json:"score,omitempty"`
	TotalQuestions *int        `json:"totalQuestions,omitempty"`
	Count          *int        `json:"count,omitempty"`
	Token          string      `json:"token,omitempty"`
}

func decodeJSON(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message interface{}) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeServiceError maps a domain error to a status and a client-safe message.
// Unrecognized errors are logged and reported as a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, validationMessage(verr))
	case errors.Is(err, domain.ErrDuplicateUsername):
		writeError(w, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		s.metrics.AuthFailure("invalid_credentials")
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "User not authorized to add questions to this quiz")
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, "Quiz not found")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Server Error")
	}
}

// validationMessage returns a single string for one problem and a list otherwise.
func validationMessage(verr *domain.ValidationError) interface{} {
	if len(verr.Messages) == 1 {
		return verr.Messages[0]
	}
	return verr.Messages
}

func intPtr(v int) *int {
	return &v
}
