package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"finmec/internal/auth"
	"finmec/internal/models"
	"finmec/internal/services"
)

type contextKey string

const (
	userKey      contextKey = "user"
	requestIDKey contextKey = "request_id"
)

const (
	msgMissingKey = "API key não fornecida"
	msgInvalidKey = "API key inválida"
	msgInactive   = "Usuário inativo"
)

type UserLookup interface {
	ByAPIKey(ctx context.Context, apiKey string) (models.User, error)
	ByID(ctx context.Context, userID int64) (models.User, error)
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// WithUser stores the authenticated user for UserFromContext.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// Auth accepts an "apikey" header (or query parameter, for browsers opening
// websockets) or a bearer token issued by the login endpoint.
func Auth(users UserLookup, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, status, msg := authenticate(r, users, secret)
			if status != 0 {
				writeError(w, status, msg)
				return
			}
			if !user.IsActive {
				writeError(w, http.StatusForbidden, msgInactive)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func authenticate(r *http.Request, users UserLookup, secret string) (models.User, int, string) {
	ctx := r.Context()
	key := r.Header.Get("apikey")
	if key == "" {
		key = r.URL.Query().Get("apikey")
	}
	if key != "" {
		user, err := users.ByAPIKey(ctx, key)
		return lookupResult(user, err)
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return models.User{}, http.StatusUnauthorized, msgMissingKey
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return models.User{}, http.StatusUnauthorized, msgInvalidKey
	}
	claims, err := auth.ParseToken(secret, parts[1])
	if err != nil {
		return models.User{}, http.StatusUnauthorized, msgInvalidKey
	}
	user, err := users.ByID(ctx, claims.UserID)
	return lookupResult(user, err)
}

func lookupResult(user models.User, err error) (models.User, int, string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return models.User{}, http.StatusUnauthorized, msgInvalidKey
	case err != nil:
		return models.User{}, http.StatusInternalServerError, "unable to verify credentials"
	}
	return user, 0, ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
