package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 50 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 16
)

// Client is one dashboard socket. send is closed by the hub, never by the
// client itself.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn, send: make(chan []byte, sendBuffer)}
}

func (c *Client) offer(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer and the api key.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request, sends the snapshot of the user's wallets and
// then streams balance events until the peer goes away.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, userID int64, snapshot []BalanceUpdate, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return
	}
	client := newClient(conn)
	client.offer(encode(eventSnapshot, snapshot...))
	if !hub.Register(userID, client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	logger.Info("websocket connected", slog.Int64("user_id", userID), slog.Int("sockets", hub.Connected(userID)))
	go client.writePump()
	client.readPump(hub, userID)
	logger.Info("websocket disconnected", slog.Int64("user_id", userID))
}

// readPump only exists to process control frames; dashboards never send data.
func (c *Client) readPump(hub *Hub, userID int64) {
	defer hub.Unregister(userID, c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
