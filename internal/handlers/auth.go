package handlers

import (
	"errors"
	"net/http"
	"strings"

	"finmec/internal/auth"
	"finmec/internal/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges the web credentials sent on activation for a bearer token.
// The long-lived api key is returned too so the dashboard can open websockets.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, services.ErrUserInactive):
			respondError(w, http.StatusForbidden, "Usuário inativo")
		default:
			h.respondServiceError(w, r, err, "login failed")
		}
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"token":   token,
		"api_key": user.APIKey,
	})
}
