package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Hub manages WebSocket connections and fans game events out to them.
// Delivery is best-effort, at-most-once: a broken client never aborts
// delivery to the rest of its game.
type Hub struct {
	// Connection pools organized by game ID, plus the set of every open
	// connection (including ones that have not joined a game yet).
	gameConnections map[string]map[*Connection]bool
	connections     map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	handler  MessageHandler
	mirror   *EventMirror

	broadcastCh chan broadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID       string
	GameID   string // set when the client joins a game, guarded by hub.mu
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	hub      *Hub

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
		// Drawings arrive as data URLs, so the read limit is generous.
		MaxMessageSize:  1 << 20,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// InboundMessage is the envelope clients send over the socket.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MessageHandler routes inbound client traffic. Implementations own all
// game-state mutation; the hub only moves bytes.
type MessageHandler interface {
	HandleMessage(conn *Connection, msg InboundMessage)
	HandleDisconnect(conn *Connection)
}

type broadcastMessage struct {
	gameID string
	all    bool
	target *Connection // if set, deliver to this connection only
	event  GameEvent
}

// NewHub creates a hub with the given connection configuration.
func NewHub(config ConnectionConfig) *Hub {
	return &Hub{
		gameConnections: make(map[string]map[*Connection]bool),
		connections:     make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// SetHandler installs the inbound message router. Must be called before
// connections are accepted.
func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

// SetMirror installs an optional NATS event mirror. Every delivered event is
// also published there.
func (h *Hub) SetMirror(mirror *EventMirror) {
	h.mirror = mirror
}

// Start drains the broadcast channel until the context is cancelled. Running
// a single drain goroutine keeps per-game event ordering intact.
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("hub shutting down")
			return
		case message := <-h.broadcastCh:
			h.deliver(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// starts its pumps. The connection belongs to no game until it joins one.
func (h *Hub) UpgradeConnection(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		hub:         h,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	h.register(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Msg("websocket connection established")

	return connection, nil
}

// Join moves a connection into a game's pool. A connection belongs to at
// most one game; joining again moves it.
func (h *Hub) Join(conn *Connection, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.GameID != "" {
		if pool, ok := h.gameConnections[conn.GameID]; ok {
			delete(pool, conn)
			if len(pool) == 0 {
				delete(h.gameConnections, conn.GameID)
			}
		}
	}

	conn.GameID = gameID
	if h.gameConnections[gameID] == nil {
		h.gameConnections[gameID] = make(map[*Connection]bool)
	}
	h.gameConnections[gameID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("game_id", gameID).
		Int("game_connections", len(h.gameConnections[gameID])).
		Msg("connection joined game")
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn] = true
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn]; !ok {
		return
	}
	delete(h.connections, conn)
	if pool, ok := h.gameConnections[conn.GameID]; ok {
		delete(pool, conn)
		if len(pool) == 0 {
			delete(h.gameConnections, conn.GameID)
		}
	}
	close(conn.Send)

	log.Info().
		Str("connection_id", conn.ID).
		Str("game_id", conn.GameID).
		Msg("connection unregistered")
}

// Broadcast sends an event to every open connection in a game.
func (h *Hub) Broadcast(gameID string, event GameEvent) {
	select {
	case h.broadcastCh <- broadcastMessage{gameID: gameID, event: event}:
	default:
		log.Warn().Str("game_id", gameID).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastAll sends an event to every open connection regardless of game.
func (h *Hub) BroadcastAll(event GameEvent) {
	select {
	case h.broadcastCh <- broadcastMessage{all: true, event: event}:
	default:
		log.Warn().Msg("broadcast channel full, dropping message")
	}
}

// SendTo sends an event to a single connection, keeping ordering with any
// broadcasts already queued.
func (h *Hub) SendTo(conn *Connection, event GameEvent) {
	select {
	case h.broadcastCh <- broadcastMessage{target: conn, event: event}:
	default:
		log.Warn().Str("connection_id", conn.ID).Msg("broadcast channel full, dropping message")
	}
}

// deliver fans one queued message out to its target connections.
func (h *Hub) deliver(message broadcastMessage) {
	h.mu.RLock()
	var targets []*Connection
	switch {
	case message.target != nil:
		if h.connections[message.target] {
			targets = []*Connection{message.target}
		}
	case message.all:
		for conn := range h.connections {
			targets = append(targets, conn)
		}
	default:
		for conn := range h.gameConnections[message.gameID] {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	if h.mirror != nil && message.target == nil {
		h.mirror.Publish(message.event)
	}

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(message.event)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(message.event.Type)).Msg("failed to marshal event")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow or dead; drop it rather than block the rest.
			log.Warn().
				Str("connection_id", conn.ID).
				Str("game_id", conn.GameID).
				Msg("connection send buffer full, closing connection")
			h.unregister(conn)
			if conn.Conn != nil {
				conn.Conn.Close()
			}
		}
	}

	log.Debug().
		Str("event_type", string(message.event.Type)).
		Str("game_id", message.gameID).
		Int("connections", len(targets)).
		Msg("event delivered")
}

// Stats returns counts of active connections per game.
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	gameCounts := make(map[string]int)
	for gameID, pool := range h.gameConnections {
		gameCounts[gameID] = len(pool)
	}
	return map[string]any{
		"total_connections": len(h.connections),
		"active_games":      len(h.gameConnections),
		"game_connections":  gameCounts,
	}
}

// writePump pushes queued bytes to the socket and keeps the ping loop alive.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.hub.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads client messages and hands them to the message handler.
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.Conn.Close()
		if c.hub.handler != nil {
			c.hub.handler.HandleDisconnect(c)
		}
	}()

	c.Conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close")
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Str("connection_id", c.ID).Msg("unparseable client message")
			continue
		}
		if c.hub.handler != nil {
			c.hub.handler.HandleMessage(c, msg)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}
