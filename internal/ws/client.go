package ws

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// TokenVerifier validates the session token passed in the token query
// parameter.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Handler upgrades requests to websocket connections subscribed to h. When
// verifier is non-nil a valid ?token= is required.
func Handler(h *Hub, verifier TokenVerifier) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Terminals authenticate with a token instead of cookies.
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lg := zctx.From(r.Context())
		if verifier != nil {
			if _, err := verifier.Verify(r.URL.Query().Get("token")); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			lg.Info("Websocket upgrade failed", zap.Error(err))
			return
		}

		c := newClient(h, sendBuffer)
		c.conn = conn
		if !h.join(c) {
			_ = conn.Close()
			return
		}
		go c.writePump(lg)
		go c.readPump(lg)
	})
}

// readPump only detects disconnects; terminals never send messages.
func (c *Client) readPump(lg *zap.Logger) {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				lg.Debug("Websocket read failed", zap.Stringer("client", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump(lg *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				lg.Debug("Websocket write failed", zap.Stringer("client", c.id), zap.Error(err))
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
