package websocket

import (
	"encoding/json"
	"sync"
)

// BalanceUpdate is pushed to a user's dashboard sockets after a wallet recompute.
type BalanceUpdate struct {
	WalletID int64  `json:"wallet_id"`
	Name     string `json:"nome"`
	Balance  string `json:"saldo_atual"`
}

const (
	eventSnapshot = "snapshot"
	eventBalance  = "balance"
)

type event struct {
	Type    string          `json:"type"`
	Wallets []BalanceUpdate `json:"wallets"`
}

func encode(kind string, updates ...BalanceUpdate) []byte {
	if updates == nil {
		updates = []BalanceUpdate{}
	}
	payload, _ := json.Marshal(event{Type: kind, Wallets: updates})
	return payload
}

// Hub fans balance events out to every socket a user has open. Sockets are
// keyed by user so one user's updates never reach another.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

// Register returns false once the hub has been shut down.
func (h *Hub) Register(userID int64, client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	sockets := h.clients[userID]
	if sockets == nil {
		sockets = make(map[*Client]struct{})
		h.clients[userID] = sockets
	}
	sockets[client] = struct{}{}
	return true
}

// Unregister is safe to call more than once for the same client.
func (h *Hub) Unregister(userID int64, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sockets, ok := h.clients[userID]
	if !ok {
		return
	}
	if _, ok := sockets[client]; !ok {
		return
	}
	delete(sockets, client)
	if len(sockets) == 0 {
		delete(h.clients, userID)
	}
	client.close()
}

func (h *Hub) Connected(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// BroadcastBalance drops the event for clients whose buffer is full.
func (h *Hub) BroadcastBalance(userID int64, update BalanceUpdate) {
	payload := encode(eventBalance, update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		client.offer(payload)
	}
}

// Close disconnects every socket and refuses new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for userID, sockets := range h.clients {
		for client := range sockets {
			client.close()
		}
		delete(h.clients, userID)
	}
}
