package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// Channels forwarded to WebSocket clients.
const (
	// BroadcastChannel carries rendered public sale announcements.
	BroadcastChannel = "broadcast"
	// ListingsChannel carries committed listings as JSON.
	ListingsChannel = "listings"
)

var defaultChannels = []string{BroadcastChannel, ListingsChannel}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Game servers connect from arbitrary hosts; access is gated by the API key.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client represents a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool
	mu   sync.RWMutex
}

// subscribeMsg is the JSON message a client sends to change its channels.
type subscribeMsg struct {
	Action   string   `json:"action"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// Envelope is the JSON frame sent to clients.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type broadcastPayload struct {
	Text  string `json:"text"`
	Plain string `json:"plain"`
}

// Hub fans sale broadcasts and listing events out to connected game servers.
// With a signal bus every instance's hub sees every broadcast; without one
// delivery stays local.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan broadcastMsg
	register   chan *client
	unregister chan *client
	done       chan struct{}
	bus        domain.SignalBus
	mu         sync.RWMutex
	logger     *slog.Logger
	plain      func(string) string
	startedAt  time.Time
}

type broadcastMsg struct {
	channel string
	data    []byte
}

// NewHub creates a hub. bus may be nil. plain strips formatting codes for
// the plain-text copy of each broadcast.
func NewHub(bus domain.SignalBus, plain func(string) string, logger *slog.Logger) *Hub {
	if plain == nil {
		plain = func(s string) string { return s }
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan broadcastMsg, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		bus:        bus,
		logger:     logger.With(slog.String("component", "ws_hub")),
		plain:      plain,
		startedAt:  time.Now().UTC(),
	}
}

// Run starts the hub's event loop and blocks until ctx is cancelled. Run
// must be called at most once.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	if h.bus != nil {
		for _, ch := range defaultChannels {
			go h.subscribeToChannel(ctx, ch)
		}
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws: client connected", slog.Int("total_clients", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected", slog.Int("total_clients", total))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.isSubscribed(msg.channel) {
					select {
					case c.send <- msg.data:
					default:
						h.logger.Warn("ws: dropping message for slow client")
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast delivers a rendered announcement on the broadcast channel. It
// implements the messenger's broadcast sink.
func (h *Hub) Broadcast(ctx context.Context, text string) error {
	payload, err := json.Marshal(broadcastPayload{Text: text, Plain: h.plain(text)})
	if err != nil {
		return err
	}
	if h.bus != nil {
		return h.bus.Publish(ctx, BroadcastChannel, payload)
	}
	h.enqueue(ctx, BroadcastChannel, payload)
	return nil
}

// PublishListing delivers a committed listing on the listings channel of
// this instance. With a bus, listings arrive through the subscription
// instead.
func (h *Hub) PublishListing(ctx context.Context, payload []byte) error {
	h.enqueue(ctx, ListingsChannel, payload)
	return nil
}

// enqueue wraps payload in an Envelope and hands it to the event loop,
// dropping it when the loop is saturated.
func (h *Hub) enqueue(ctx context.Context, channel string, payload []byte) {
	data, err := json.Marshal(Envelope{Type: channel, Payload: payload})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- broadcastMsg{channel: channel, data: data}:
	case <-ctx.Done():
	default:
		h.logger.Warn("ws: hub queue full, dropping message", slog.String("channel", channel))
	}
}

// subscribeToChannel forwards one bus channel into the hub.
func (h *Hub) subscribeToChannel(ctx context.Context, channel string) {
	msgCh, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("ws: failed to subscribe to channel",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgCh:
			if !ok {
				h.logger.Warn("ws: channel subscription closed", slog.String("channel", channel))
				return
			}
			h.enqueue(ctx, channel, data)
		}
	}
}

// HandleWS upgrades the request and registers the client on every channel.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]bool),
	}
	for _, ch := range defaultChannels {
		c.subs[ch] = true
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	c.sendHello()

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

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close error", slog.String("error", err.Error()))
			}
			return
		}

		var sub subscribeMsg
		if json.Unmarshal(message, &sub) == nil && sub.Action != "" {
			c.handleSubscription(sub)
		}
	}
}

func (c *client) handleSubscription(msg subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Action {
	case "subscribe":
		for _, ch := range msg.Channels {
			c.subs[ch] = true
		}
	case "unsubscribe":
		for _, ch := range msg.Channels {
			delete(c.subs, ch)
		}
	}
}

// sendHello lets clients mark the connection healthy before any sale happens.
func (c *client) sendHello() {
	uptime := int64(time.Since(c.hub.startedAt).Seconds())
	payload, _ := json.Marshal(map[string]any{
		"channels":       defaultChannels,
		"uptime_seconds": uptime,
	})
	msg, err := json.Marshal(Envelope{Type: "hello", Payload: payload})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subs[channel]
}

// writePump sends queued frames as text messages plus periodic pings.
func (c *client) writePump() {
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
