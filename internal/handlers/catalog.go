package handlers

import "net/http"

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load categories")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := h.catalog.Category(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load category")
		return
	}
	respondJSON(w, http.StatusOK, row)
}

func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.PaymentMethods(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load payment methods")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := h.catalog.PaymentMethod(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load payment method")
		return
	}
	respondJSON(w, http.StatusOK, row)
}
