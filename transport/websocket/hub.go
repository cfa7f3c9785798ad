package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"diceduel/game/match"
	"diceduel/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Action is a client request carried over the socket.
type Action struct {
	Action string `json:"action"`
}

// Update is a server push to a client.
type Update struct {
	Event  string             `json:"event"`
	UserID string             `json:"user_id"`
	State  *service.UserState `json:"state,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// Client represents one WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// Hub maintains the set of active clients, grouped by user, and bridges the
// registry's change events to them.
type Hub struct {
	service  service.MatchService
	registry *match.Registry
	logger   zerolog.Logger

	// Registered clients by user id; owned by the Run goroutine.
	users map[string]map[*Client]bool

	// One registry subscription per connected user; owned by Run.
	subs map[string]*match.Subscription

	// User ids whose state changed.
	changed chan string

	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new WebSocket hub.
func NewHub(svc service.MatchService, registry *match.Registry) *Hub {
	return &Hub{
		service:    svc,
		registry:   registry,
		logger:     log.With().Str("component", "ws-hub").Logger(),
		users:      make(map[string]map[*Client]bool),
		subs:       make(map[string]*match.Subscription),
		changed:    make(chan string, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case userID := <-h.changed:
			h.pushState(userID)
		}
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// registerClient adds a client and, for the first connection of a user,
// subscribes to that user's change events.
func (h *Hub) registerClient(client *Client) {
	if h.users[client.userID] == nil {
		h.users[client.userID] = make(map[*Client]bool)
		userID := client.userID
		h.subs[userID] = h.registry.Subscribe(userID, func() {
			select {
			case h.changed <- userID:
			default:
				// A pending push already covers this change; state is
				// re-read at push time.
			}
		})
	}
	h.users[client.userID][client] = true

	h.logger.Debug().Str("user", client.userID).
		Int("clients", len(h.users[client.userID])).Msg("client registered")

	// Initial snapshot so the client does not wait for the next event.
	h.pushState(client.userID)
}

// unregisterClient removes a client and drops the user's subscription when
// the last connection goes away.
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.users[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.users, client.userID)
		if sub := h.subs[client.userID]; sub != nil {
			sub.Cancel()
		}
		delete(h.subs, client.userID)
	}

	h.logger.Debug().Str("user", client.userID).
		Int("clients", len(clients)).Msg("client unregistered")
}

// pushState sends the user's current state to all of their connections.
func (h *Hub) pushState(userID string) {
	clients, ok := h.users[userID]
	if !ok {
		return
	}

	state, err := h.service.UserState(context.Background(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user", userID).Msg("failed to read user state")
		return
	}
	data, err := json.Marshal(Update{Event: "state", UserID: userID, State: state})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal state update")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it.
			h.unregisterClient(client)
		}
	}
}

// readPump pumps actions from the WebSocket connection into the service.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("user", c.userID).Msg("websocket read error")
			}
			break
		}

		var action Action
		if err := json.Unmarshal(data, &action); err != nil {
			c.sendError("invalid message")
			continue
		}
		if err := c.handleAction(action); err != nil {
			c.sendError(err.Error())
		}
	}
}

func (c *Client) handleAction(action Action) error {
	ctx := context.Background()
	switch action.Action {
	case "matchmake":
		return c.hub.service.StartMatchmaking(ctx, c.userID)
	case "stop":
		return c.hub.service.StopMatchmaking(ctx, c.userID)
	case "roll":
		_, err := c.hub.service.Roll(ctx, c.userID)
		return err
	case "rematch":
		_, err := c.hub.service.Rematch(ctx, c.userID)
		return err
	case "leave":
		return c.hub.service.LeaveRoom(ctx, c.userID)
	default:
		c.sendError("unknown action: " + action.Action)
		return nil
	}
}

func (c *Client) sendError(msg string) {
	data, err := json.Marshal(Update{Event: "error", UserID: c.userID, Error: msg})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
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
