package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskmanager/internal/models"
	"taskmanager/internal/services"
)

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

type authFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// AuthMiddleware turns a bearer token into a resolved user and session.
// Requests without a live session never reach the wrapped handler.
type AuthMiddleware struct {
	sessions *services.SessionManager
	failures authFailureRecorder
}

func NewAuthMiddleware(sessions *services.SessionManager, failures authFailureRecorder) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, failures: failures}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.recordFailure(services.AuthReasonMissingToken)
			unauthorized(w, "Please authenticate")
			return
		}

		user, err := m.sessions.Resolve(r.Context(), token)
		if err != nil {
			var authErr *services.AuthError
			if errors.As(err, &authErr) {
				m.recordFailure(authErr.Reason)
				unauthorized(w, authErr.Message)
				return
			}
			writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), user, token)))
	})
}

func (m *AuthMiddleware) recordFailure(reason string) {
	if m.failures != nil {
		m.failures.RecordAuthFailure(reason)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// CurrentUser returns the user resolved by RequireAuth, or nil.
func CurrentUser(r *http.Request) *models.User {
	if user, ok := r.Context().Value(userKey).(*models.User); ok {
		return user
	}
	return nil
}

// CurrentToken returns the bearer token accepted by RequireAuth.
func CurrentToken(r *http.Request) string {
	if token, ok := r.Context().Value(tokenKey).(string); ok {
		return token
	}
	return ""
}

func withSession(ctx context.Context, user *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}
