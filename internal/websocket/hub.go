package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/auth"
	"hrms/internal/middleware"
	"hrms/internal/rbac"
	"hrms/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the JSON envelope pushed to clients.
type Event struct {
	Event   string    `json:"event"`
	UserID  uuid.UUID `json:"user_id"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

type message struct {
	userID uuid.UUID
	data   []byte
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uuid.UUID
	// Supervisor clients receive every user's events.
	Supervisor bool
}

// Hub maintains the set of active clients and routes events to the owning
// user's connections and to supervisors.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	log        logger.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Publish encodes an event and queues it for delivery. It never blocks the
// caller; events are dropped when the queue is full.
func (h *Hub) Publish(event string, userID uuid.UUID, payload any) {
	data, err := json.Marshal(Event{Event: event, UserID: userID, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		h.log.Error("failed to encode websocket event", "event", event, "error", err)
		return
	}
	select {
	case h.broadcast <- message{userID: userID, data: data}:
	default:
		h.log.Warn("websocket queue full, dropping event", "event", event, "user_id", userID)
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run starts the core dispatch loop for WebSocket events until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("websocket client connected", "user_id", client.UserID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug("websocket client disconnected", "user_id", client.UserID)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.Supervisor && client.UserID != msg.userID {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// join hands c to the dispatch loop. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave removes c from the dispatch loop unless the hub has already stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.leave(c)
		_ = c.Conn.Close()
	}()
	for {
		// Just reading to keep connection alive or handle client messages if necessary
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read failed", "user_id", c.UserID, "error", err)
			}
			break
		}
	}
}

// Handler authenticates websocket upgrades. A caller needs time:list to
// connect; time:approve makes the connection a supervisor.
type Handler struct {
	hub    *Hub
	tokens *auth.JWTManager
	authz  middleware.Authorizer
}

func NewHandler(hub *Hub, tokens *auth.JWTManager, authz middleware.Authorizer) *Handler {
	return &Handler{hub: hub, tokens: tokens, authz: authz}
}

// ServeWs handles websocket requests from the peer. Browsers cannot set
// headers on upgrades, so the token may also come from the query string.
func (h *Handler) ServeWs(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.TokenFromRequest(c)
	}
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID, err := h.tokens.Parse(token)
	if err != nil {
		h.hub.log.Debug("websocket connection rejected", "error", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.authz.Authorize(ctx, userID, rbac.RequireLimited(rbac.TimeList)); err != nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	_, err = h.authz.Authorize(ctx, userID, rbac.Require(rbac.TimeApprove))
	supervisor := err == nil
	if err != nil && !errors.Is(err, apperror.ErrForbidden) {
		h.hub.log.Error("failed to resolve websocket supervisor access", "user_id", userID, "error", err)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{Hub: h.hub, Conn: conn, Send: make(chan []byte, 256), UserID: userID, Supervisor: supervisor}
	if !h.hub.join(client) {
		_ = conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
