package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finmec/internal/db"
	"finmec/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dest)
}

// respondServiceError maps domain sentinels to status codes. Anything else is
// logged and answered with fallback.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, "Transação não encontrada")
	case errors.Is(err, services.ErrWalletNotFound):
		respondError(w, http.StatusNotFound, "Carteira não encontrada")
	case errors.Is(err, services.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, "Categoria não encontrada")
	case errors.Is(err, services.ErrPaymentMethodNotFound):
		respondError(w, http.StatusNotFound, "Método de pagamento não encontrado")
	case errors.Is(err, services.ErrReminderNotFound):
		respondError(w, http.StatusNotFound, "Lembrete não encontrado")
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidType),
		errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrInvalidTitle),
		errors.Is(err, services.ErrReminderInPast):
		respondError(w, http.StatusBadRequest, err.Error())
	case db.IsForeignKeyViolation(err):
		respondError(w, http.StatusBadRequest, "invalid reference")
	default:
		h.logger.ErrorContext(r.Context(), fallback,
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
