package realtime

import (
	"log"
	"time"

	"bugtrail/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a single websocket subscriber on the activity feed. BugID narrows
// the subscription to one bug; an empty BugID means the firehose.
type Client struct {
	hub *Hub

	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	UserID string
	BugID  string
}

func newClient(hub *Hub, conn *websocket.Conn, userID, bugID string) *Client {
	return &Client{
		hub:    hub,
		Conn:   conn,
		UserID: userID,
		BugID:  bugID,
		Send:   make(chan []byte, 64),
	}
}

// ReadPump drains the connection until the peer goes away. Incoming frames
// are discarded; the feed is one-way.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("activity feed read error (user %s): %v", c.UserID, err)
			}
			break
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message, dropping it when the client cannot keep up.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.ActivityFeedDrops.WithLabelValues("closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.ActivityFeedDrops.WithLabelValues("full").Inc()
	}
}
