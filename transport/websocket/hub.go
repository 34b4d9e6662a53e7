package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
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

// Event names pushed to editors
const (
	EventBoardUpdate    = "board_update"
	EventValidation     = "validation"
	EventSessionDeleted = "session_deleted"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one event pushed to the clients watching a session
type Message struct {
	SessionID string      `json:"session_id"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	SentAt    time.Time   `json:"sent_at"`
}

// Client is one WebSocket connection attached to a session
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type countRequest struct {
	sessionID string
	reply     chan int
}

// Hub fans session events out to connected clients. The client map is only
// touched from Run.
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	counts     chan countRequest
	done       chan struct{}

	log logrus.FieldLogger
}

// NewHub creates a new WebSocket hub. A nil logger uses the standard one.
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
		log:        log.WithField("component", "websocket"),
	}
}

// Run serves hub events until ctx is done, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.counts:
			req.reply <- len(h.sessions[req.sessionID])
		}
	}
}

// ServeWS upgrades the request and attaches the connection to sessionID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Broadcast queues an event for every client of sessionID. It never blocks;
// events are dropped while the queue is full.
func (h *Hub) Broadcast(sessionID, event string, data interface{}) {
	message := &Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
		SentAt:    time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.log.WithFields(logrus.Fields{
			"session": sessionID,
			"event":   event,
		}).Warn("Broadcast queue full, dropping event")
	}
}

// ClientCount reports how many clients watch sessionID
func (h *Hub) ClientCount(ctx context.Context, sessionID string) (int, error) {
	req := countRequest{sessionID: sessionID, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
	case <-h.done:
		return 0, context.Canceled
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return <-req.reply, nil
}

func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	h.log.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": len(h.sessions[client.sessionID]),
	}).Debug("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	h.log.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": len(clients),
	}).Debug("Client unregistered")
}

func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.sessions[message.SessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).WithField("event", message.Event).Error("Failed to marshal broadcast message")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// slow consumer
			h.unregisterClient(client)
		}
	}
}

// readPump drains the connection so pongs and close frames are handled.
// Clients do not send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
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
				c.hub.log.WithError(err).WithField("session", c.sessionID).Warn("WebSocket closed unexpectedly")
			}
			return
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
