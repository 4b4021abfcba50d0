package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mvasiljevic/delivery-shop/pkg/apperrors"
)

// Health represents the health check response
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// healthCheckHandler handles the health check endpoint
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Status:    "ok",
		Version:   "0.1.0",
		Timestamp: time.Now().Format(time.RFC3339),
	}
	s.respondWithJSON(w, http.StatusOK, health)
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// respondWithMessage sends the {"message": ...} error body the clients of
// the original services expect.
func (s *Server) respondWithMessage(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"message": message})
}

// respondWithAuthFailure sends the authorization failure body.
func (s *Server) respondWithAuthFailure(w http.ResponseWriter) {
	s.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
}

// respondWithServiceError maps a service error onto an HTTP response.
// Structured errors carry their own status and client message; anything
// else is an internal failure the client learns nothing about.
func (s *Server) respondWithServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		s.respondWithMessage(w, appErr.StatusCode, appErr.Message)
		return
	}

	s.logger.Error("Unhandled service error", "error", err)
	s.respondWithMessage(w, http.StatusInternalServerError, "ERROR")
}
