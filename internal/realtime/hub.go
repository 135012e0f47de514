package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"

	"bugtrail/internal/middleware"
	"bugtrail/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 5000
)

// Hub fans Redis activity events out to websocket subscribers. Clients either
// watch a single bug or the firehose.
type Hub struct {
	mu         sync.RWMutex
	byBug      map[string]map[*Client]struct{}
	firehose   map[*Client]struct{}
	perUser    map[string]int
	totalConns int

	rdb  *redis.Client
	done chan struct{}
}

// NewHub creates a new activity hub. rdb may be nil; the hub then serves
// connections but never receives events.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		byBug:    make(map[string]map[*Client]struct{}),
		firehose: make(map[*Client]struct{}),
		perUser:  make(map[string]int),
		rdb:      rdb,
		done:     make(chan struct{}),
	}
}

// Register adds a websocket connection. bugID may be empty for the firehose.
func (h *Hub) Register(userID, bugID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}
	if h.perUser[userID] >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := newClient(h, conn, userID, bugID)
	if bugID == "" {
		h.firehose[client] = struct{}{}
	} else {
		m, ok := h.byBug[bugID]
		if !ok {
			m = make(map[*Client]struct{})
			h.byBug[bugID] = m
		}
		m[client] = struct{}{}
	}
	h.perUser[userID]++
	h.totalConns++
	observability.ActivityFeedConnections.Inc()

	return client, nil
}

// Unregister removes a client. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	if client.BugID == "" {
		if _, ok := h.firehose[client]; ok {
			delete(h.firehose, client)
			removed = true
		}
	} else if m, ok := h.byBug[client.BugID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			removed = true
		}
		if len(m) == 0 {
			delete(h.byBug, client.BugID)
		}
	}

	if removed {
		h.totalConns--
		h.perUser[client.UserID]--
		if h.perUser[client.UserID] <= 0 {
			delete(h.perUser, client.UserID)
		}
		observability.ActivityFeedConnections.Dec()
	}
}

// Run subscribes to the activity channels and dispatches until ctx is done.
// Returns immediately when the hub has no Redis client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	pubsub := h.rdb.PSubscribe(ctx, "activity:*")
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.dispatch(msg.Channel, []byte(msg.Payload))
		}
	}
}

func (h *Hub) dispatch(channel string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if channel == ChannelAll {
		for c := range h.firehose {
			c.TrySend(payload)
		}
		return
	}

	bugID, found := strings.CutPrefix(channel, "activity:bug:")
	if !found {
		return
	}
	for c := range h.byBug[bugID] {
		c.TrySend(payload)
	}
}

// Shutdown closes every connection and stops the dispatcher.
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	closeClient := func(c *Client) {
		if c.Conn == nil {
			return
		}
		if err := c.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			middleware.Logger.Warn("Failed to write websocket close message", "error", err)
		}
		_ = c.Conn.Close()
	}

	for c := range h.firehose {
		closeClient(c)
	}
	for _, clients := range h.byBug {
		for c := range clients {
			closeClient(c)
		}
	}

	h.byBug = make(map[string]map[*Client]struct{})
	h.firehose = make(map[*Client]struct{})
	h.perUser = make(map[string]int)
	h.totalConns = 0

	return nil
}
