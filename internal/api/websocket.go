package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/bibleref/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Event types published on /ws/events.
const (
	EventCollectionCreated = "collection_created"
	EventCollectionDeleted = "collection_deleted"
	EventReferenceAdded    = "reference_added"
	EventReferenceRemoved  = "reference_removed"
)

// Event is a change to the collection store, broadcast to event clients.
type Event struct {
	Type         string `json:"type"`
	CollectionID string `json:"collection_id"`
	Name         string `json:"name,omitempty"`
	EntryID      string `json:"entry_id,omitempty"`
	Reference    string `json:"reference,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// ResolveReply answers one frame sent to /ws/resolve.
type ResolveReply struct {
	Input     string         `json:"input"`
	OK        bool           `json:"ok"`
	Reference *ReferenceInfo `json:"reference,omitempty"`
	Error     *APIError      `json:"error,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub  *Hub // nil for resolve clients
	conn *websocket.Conn
	send chan []byte
	done chan struct{} // closed when writePump exits
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

// Hub maintains event clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run handles registration and broadcasting until Stop is called.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client channel full, disconnect
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and disconnects every client. It is safe to call twice.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.stopped
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Publish broadcasts ev to all clients. Messages are dropped when the
// broadcast queue is full.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Error("failed to marshal event", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message", "type", ev.Type)
	}
}

// rateBucket is a token bucket allowing bursts of twice the rate.
type rateBucket struct {
	tokens   float64
	capacity float64
	rate     float64
	last     time.Time
}

func newRateBucket(perSecond int) *rateBucket {
	return &rateBucket{
		tokens:   float64(perSecond) * 2,
		capacity: float64(perSecond) * 2,
		rate:     float64(perSecond),
		last:     time.Now(),
	}
}

func (b *rateBucket) allow(now time.Time) bool {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// readPump reads frames until the connection fails. handle, when set,
// turns each frame into a reply queued on c.send.
func (c *Client) readPump(limit *rateBucket, handle func([]byte) []byte) {
	defer func() {
		if c.hub != nil {
			c.hub.remove(c)
		} else {
			close(c.send)
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("websocket unexpected close", "error", err)
			}
			return
		}
		if !limit.allow(time.Now()) {
			logging.Warn("websocket rate limit exceeded", "remote_addr", c.conn.RemoteAddr().String())
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Rate limit exceeded"),
				time.Now().Add(writeWait))
			return
		}
		if handle == nil {
			continue
		}
		select {
		case c.send <- handle(message):
		case <-c.done:
			return
		}
	}
}

// writePump writes queued messages, one per frame, and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
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

// handleResolveSocket resolves every text frame it receives and replies
// with a ResolveReply.
func (s *Server) handleResolveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.cfg.MaxMessageSize)

	ctx := context.WithoutCancel(r.Context())
	client := newClient(nil, conn)
	go client.writePump()
	go client.readPump(newRateBucket(s.cfg.MaxMessageRate), func(msg []byte) []byte {
		return s.resolveFrame(ctx, string(msg))
	})
}

func (s *Server) resolveFrame(ctx context.Context, input string) []byte {
	reply := ResolveReply{Input: input}
	ref, err := s.resolve(ctx, input)
	if err != nil {
		_, code := errorStatus(err)
		reply.Error = &APIError{Code: code, Message: err.Error()}
	} else {
		info := NewReferenceInfo(ref)
		reply.OK = true
		reply.Reference = &info
	}
	data, _ := json.Marshal(reply)
	return data
}

// handleEventSocket subscribes the client to collection change events.
func (s *Server) handleEventSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.cfg.MaxMessageSize)

	client := newClient(s.hub, conn)
	if !s.hub.add(client) {
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump(newRateBucket(s.cfg.MaxMessageRate), nil)
}
