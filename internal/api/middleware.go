package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "requestID"
)

// identityFromContext returns the authenticated user's email.
func identityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey).(string)
	return identity
}

// requestIDMiddleware tags every request with an id for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
	})
}

// loggingMiddleware logs every processed request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"requestID", requestID,
		)
	})
}

// authenticate verifies the Bearer token and, when role is non-empty, that
// the token grants that role. The caller identity (email) is placed in the
// request context. Both a missing header and a missing role produce the
// same authorization failure.
func (s *Server) authenticate(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.respondWithAuthFailure(w)
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := s.tokens.Verify(tokenString)
		if err != nil {
			s.respondWithAuthFailure(w)
			return
		}

		if role != "" && !claims.HasRole(role) {
			s.respondWithAuthFailure(w)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole adapts authenticate into router middleware for a route group.
func (s *Server) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return s.authenticate(role, next)
	}
}
