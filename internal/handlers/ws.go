package handlers

import (
	"net/http"

	"finmec/internal/websocket"
)

// WSBalances upgrades to a websocket that first receives every wallet of the
// user and then a push whenever one of them is recomputed. Authentication
// runs before the upgrade.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "live updates unavailable")
		return
	}
	wallets, err := h.wallets.List(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load wallets")
		return
	}
	snapshot := make([]websocket.BalanceUpdate, 0, len(wallets))
	for _, wallet := range wallets {
		snapshot = append(snapshot, websocket.BalanceUpdate{
			WalletID: wallet.ID,
			Name:     wallet.Name,
			Balance:  wallet.CurrentBalance.StringFixed(2),
		})
	}
	websocket.ServeWS(w, r, h.hub, user.ID, snapshot, h.logger)
}
