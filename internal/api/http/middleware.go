package http

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"

	"velorent-backend/internal/config"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/security"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware writes one access log line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if route := mux.CurrentRoute(r); route != nil {
			args = append(args, "route", route.GetName())
		}
		switch {
		case rec.status >= 500:
			logger.Error("HTTP request", args...)
		case rec.status >= 400:
			logger.Warn("HTTP request", args...)
		default:
			logger.Info("HTTP request", args...)
		}
	})
}

// RecoveryMiddleware turns a handler panic into a 500 envelope.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panic", "panic", rec, "path", r.URL.Path, "stack", string(debug.Stack()))
				respondJSON(w, http.StatusInternalServerError, Envelope{Error: &ErrorBody{
					Code: "internal_error", Message: "internal server error",
				}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Authenticate enforces the security level configured for the matched route.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		// Public endpoint - skip auth
		if config.GetSecurityLevel(name) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "authorization token is not provided")
			return
		}
		token, ok := security.BearerToken(header)
		if !ok {
			unauthorized(w, "authorization header must use the Bearer scheme")
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			unauthorized(w, "invalid token: %v", err)
			return
		}
		if !claims.HasRole(security.RoleAdmin) {
			respondJSON(w, http.StatusForbidden, Envelope{Error: &ErrorBody{
				Code: "forbidden", Message: "admin role required",
			}})
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}
