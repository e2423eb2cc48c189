// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package websocket

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/furrow/internal/engine"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/metrics"
)

// Message types sent to clients besides the engine events.
const (
	MessageTypeHello = "hello"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

// Message is one frame sent to or received from a client.
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HubOptions configures a Hub.
type HubOptions struct {
	// RowRate caps row_plotted broadcasts per second. Other events are never
	// throttled.
	RowRate  rate.Limit
	RowBurst int

	// AllowedOrigins lists accepted Origin headers; "*" accepts any.
	AllowedOrigins []string

	Metrics *metrics.Metrics
}

// Hub tracks connected clients and broadcasts to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	rows     *rate.Limiter
	origins  []string
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
}

// NewHub returns a hub. Run it with RunWithContext.
func NewHub(opts HubOptions) *Hub {
	if opts.RowRate <= 0 {
		opts.RowRate = 10
	}
	if opts.RowBurst <= 0 {
		opts.RowBurst = 1
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rows:       rate.NewLimiter(opts.RowRate, opts.RowBurst),
		origins:    opts.AllowedOrigins,
		metrics:    opts.Metrics,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// RunWithContext runs the hub until ctx is cancelled, then closes every
// client. Lifecycle events are handled before broadcasts so a client never
// misses a message sent right after it registered.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.Register:
			h.add(c)
			continue
		case c := <-h.Unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case c := <-h.Register:
			h.add(c)
		case c := <-h.Unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetWebSocketClients(n)
	logging.Info().Int("total_clients", n).Msg("Live-view client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetWebSocketClients(n)
	logging.Info().Int("total_clients", n).Msg("Live-view client disconnected")
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	n := len(h.clients)
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	h.metrics.SetWebSocketClients(0)
	logging.Info().Str("component", "websocket-hub").Int("clients_closed", n).Msg("Live-view hub stopped")
}

// broadcastToClients sends msg to every client in ID order. Clients whose
// buffer is full are dropped.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var dropped []*Client
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			dropped = append(dropped, c)
		}
	}
	for _, c := range dropped {
		close(c.send)
		delete(h.clients, c)
		h.metrics.RecordWebSocketDropped()
	}
	if len(dropped) > 0 {
		h.metrics.SetWebSocketClients(len(h.clients))
		logging.Warn().Int("dropped", len(dropped)).Msg("Dropped slow live-view clients")
	}
}

// Notify implements engine.Notifier.
func (h *Hub) Notify(ev engine.Event) {
	if ev.Type == engine.EventRowPlotted && !h.rows.Allow() {
		return
	}
	h.Broadcast(Message{Type: ev.Type, Data: ev.Data, Timestamp: ev.Timestamp})
}

// Broadcast queues msg for every client without blocking.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- msg:
	default:
		logging.Warn().Str("message_type", msg.Type).Msg("Broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the client. It greets the
// client with a hello message so it can tell a reconnect from a stall.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	c := NewClient(h, conn)
	c.send <- Message{Type: MessageTypeHello, Timestamp: time.Now().UTC()}
	h.Register <- c
	c.Start()
}

// checkOrigin rejects browsers from origins not in the allow list. Clients
// without an Origin header are not browsers and are accepted.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
