package http

import (
	"net/http"
	"time"

	"velorent-backend/internal/service"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthHandler struct {
	authSvc service.AuthService
}

func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(w, "email", "email and password are required")
		return
	}

	token, expiresAt, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Health reports liveness only.
func Health(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"status": "ok"})
}
