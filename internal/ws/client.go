package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// upgrader accepts connections from any origin; the market data feed
// carries no credentials worth protecting behind an origin check.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client relays frames between one websocket connection and the hub it
// subscribes through. Every connected socket gets its own Client; the
// hub fans book/trade updates out to whichever clients subscribed.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	ID     string
	logger *zap.Logger
}

// NewClient wraps conn under clientID, registered against hub.
func NewClient(hub *Hub, conn *websocket.Conn, clientID string, logger *zap.Logger) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		hub:    hub,
		ID:     clientID,
		logger: logger,
	}
}

// readPump forwards every inbound frame to the hub's subscribe/
// unsubscribe dispatch until the connection errors or closes, then
// unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("market data websocket read error", zap.Error(err))
			}
			break
		}
		c.hub.HandleClientMessage(c, message)
	}
}

// writePump drains c.send onto the wire and keeps the connection alive
// with periodic pings. Each message taken from c.send is written together
// with whatever is already queued behind it, newline-separated, as one
// websocket frame rather than one frame per queued message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			queued := len(c.send)
			for i := 0; i < queued; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start launches the client's read and write pumps in their own goroutines.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Send enqueues data for delivery, closing the client if its outbound
// buffer is already full rather than blocking the caller.
func (c *Client) Send(data interface{}) error {
	message, err := json.Marshal(data)
	if err != nil {
		return err
	}

	select {
	case c.send <- message:
		return nil
	default:
		close(c.send)
		return websocket.ErrCloseSent
	}
}
