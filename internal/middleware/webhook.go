package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireWebhookSecret checks X-Webhook-Secret when a secret is configured.
func RequireWebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get("X-Webhook-Secret")
			if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid webhook secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
