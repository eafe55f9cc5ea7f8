package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/blueblock/game/service"
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

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 256
)

// TopicRuns receives every run event regardless of puzzle.
const TopicRuns = "runs"

// Event names.
const (
	EventRunCompleted = "run_completed"
	EventRunDeleted   = "run_deleted"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is a WebSocket message
type Message struct {
	Topic string           `json:"topic"`
	Event string           `json:"event"`
	Run   *service.RunInfo `json:"run,omitempty"`
	Data  interface{}      `json:"data,omitempty"`
}

// Client is one WebSocket connection subscribed to a topic
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by topic
	topics map[string]map[*Client]bool
	mu     sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     slog.Default().With("component", "websocket"),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to topic
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 256),
		topic: topic,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastRun announces a finished run on TopicRuns and on its puzzle's topic
func (h *Hub) BroadcastRun(run *service.RunInfo) {
	h.enqueue(&Message{Topic: TopicRuns, Event: EventRunCompleted, Run: run})
	if run.Puzzle != "" && run.Puzzle != TopicRuns {
		h.enqueue(&Message{Topic: run.Puzzle, Event: EventRunCompleted, Run: run})
	}
}

// BroadcastEvent sends a custom event to all clients of a topic
func (h *Hub) BroadcastEvent(topic string, event string, data interface{}) {
	h.enqueue(&Message{Topic: topic, Event: event, Data: data})
}

// ClientCount returns the number of clients subscribed to topic
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue full, dropping message", "topic", message.Topic, "event", message.Event)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[client.topic] == nil {
		h.topics[client.topic] = make(map[*Client]bool)
	}
	h.topics[client.topic][client] = true

	h.logger.Debug("client registered", "topic", client.topic, "clients", len(h.topics[client.topic]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked drops client; h.mu must be held.
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.topics[client.topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.topics, client.topic)
	}

	h.logger.Debug("client unregistered", "topic", client.topic, "clients", len(clients))
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.topics[message.Topic] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full
			h.removeLocked(client)
		}
	}
}

// readPump drains the connection until it closes; clients never send
// anything meaningful.
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
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket error", "topic", c.topic, "error", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
