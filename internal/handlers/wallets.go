package handlers

import (
	"errors"
	"net/http"
	"time"

	"finmec/internal/services"

	"github.com/shopspring/decimal"
)

type currentWalletResponse struct {
	ID           int64           `json:"id"`
	Name         string          `json:"nome"`
	Balance      decimal.Decimal `json:"saldo_atual"`
	CreationDate time.Time       `json:"data_criacao"`
}

func (h *Handler) CurrentWallet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	wallet, err := h.wallets.Current(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			respondError(w, http.StatusNotFound, "Nenhuma carteira encontrada")
			return
		}
		h.respondServiceError(w, r, err, "unable to load wallet")
		return
	}
	respondJSON(w, http.StatusOK, currentWalletResponse{
		ID:           wallet.ID,
		Name:         wallet.Name,
		Balance:      wallet.CurrentBalance,
		CreationDate: wallet.CreatedAt,
	})
}

func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	wallets, err := h.wallets.List(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load wallets")
		return
	}
	respondJSON(w, http.StatusOK, wallets)
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	wallet, err := h.wallets.Get(r.Context(), user.ID, id)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load wallet")
		return
	}
	respondJSON(w, http.StatusOK, wallet)
}
