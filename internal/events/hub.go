// Package events pushes progression events to a user's connected websocket clients.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mrwolf/vibenote-server/internal/metrics"
)

// Event types
const (
	TypeAchievementUnlocked = "achievement_unlocked"
	TypeRewardUnlocked      = "reward_unlocked"
	TypeLevelUp             = "level_up"
	TypeInsightsReady       = "insights_ready"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Event is one message sent to clients
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher delivers events to a user
type Publisher interface {
	Publish(userID string, ev Event)
}

type message struct {
	userID  string
	payload []byte
}

type client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans events out to every connection of the addressed user
type Hub struct {
	clients    map[string]map[*client]bool
	register   chan *client
	unregister chan *client
	publish    chan message
	done       chan struct{}
	upgrader   websocket.Upgrader
	connected  atomic.Int64
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewHub creates a hub; call Run to start it. allowedOrigins lists the
// browser origins accepted besides the server's own; "*" accepts any.
func NewHub(logger *slog.Logger, m *metrics.Metrics, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		publish:    make(chan message, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowedOrigins),
		},
		logger:  logger,
		metrics: m,
	}
}

// Run processes registrations and deliveries until ctx is done.
// It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*client]bool)
			h.setConnected(0)
			return

		case c := <-h.register:
			set := h.clients[c.userID]
			if set == nil {
				set = make(map[*client]bool)
				h.clients[c.userID] = set
			}
			set[c] = true
			h.setConnected(h.connected.Load() + 1)
			h.logger.Debug("event client connected", "user_id", c.userID)

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.publish:
			for c := range h.clients[msg.userID] {
				select {
				case c.send <- msg.payload:
				default:
					// slow consumer
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	h.setConnected(h.connected.Load() - 1)
	h.logger.Debug("event client disconnected", "user_id", c.userID)
}

func (h *Hub) setConnected(n int64) {
	h.connected.Store(n)
	h.metrics.SetEventClients(int(n))
}

// Connected returns the number of open connections across all users
func (h *Hub) Connected() int {
	return int(h.connected.Load())
}

// Publish queues an event for userID. It never blocks; when the queue is
// full the event is dropped.
func (h *Hub) Publish(userID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshaling event", "type", ev.Type, "error", err)
		return
	}
	select {
	case h.publish <- message{userID: userID, payload: payload}:
	default:
		h.logger.Warn("event queue full, dropping event", "type", ev.Type, "user_id", userID)
	}
}

// checkOrigin accepts requests without an Origin header (native clients),
// same-host origins and the configured list.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// ServeWS upgrades the request and attaches the connection to userID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
