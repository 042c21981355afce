package handlers

import "net/http"

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"app":     h.cfg.AppName,
		"version": h.cfg.AppVersion,
		"status":  "online",
		"message": "API de Gestão Financeira via WhatsApp está funcionando!",
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"app":     h.cfg.AppName,
		"version": h.cfg.AppVersion,
	})
}
