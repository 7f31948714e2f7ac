// Package ws streams run events to WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// client is one connection. send is closed by the hub, never by the client.
type client struct {
	runID  string // only events of this run when non-empty
	send   chan []byte
	reason websocket.StatusCode
}

// Hub tracks connected clients and fans run events out to them. A client
// that cannot keep up is disconnected rather than slowing the run down.
type Hub struct {
	acceptOpts *websocket.AcceptOptions

	mu      sync.RWMutex
	clients map[*client]struct{}
	evicted atomic.Int64
}

// NewHub creates a Hub. originPatterns restricts cross-origin upgrades;
// with none, the origin check is left to the CORS middleware.
func NewHub(originPatterns ...string) *Hub {
	opts := &websocket.AcceptOptions{OriginPatterns: originPatterns}
	if len(originPatterns) == 0 {
		opts.InsecureSkipVerify = true
	}
	return &Hub{acceptOpts: opts, clients: make(map[*client]struct{})}
}

// HandleWS upgrades the connection and streams events until either side
// closes. ?run=<id> limits the stream to one run.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, h.acceptOpts)
	if err != nil {
		slog.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{runID: r.URL.Query().Get("run"), send: make(chan []byte, sendBuffer)}
	h.add(c)
	defer h.remove(c)
	slog.Info("websocket connected", "remote", r.RemoteAddr, "run_id", c.runID)

	// Clients only listen; CloseRead handles their control frames.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			slog.Info("websocket disconnected", "remote", r.RemoteAddr)
			return
		case data, ok := <-c.send:
			if !ok {
				_ = conn.Close(c.reason, closeText(c.reason))
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}

// Broadcast queues msg for every client that is either unfiltered or
// filtered to runID.
func (h *Hub) Broadcast(msg Message, runID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "type", msg.Type, "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if c.runID != "" && c.runID != runID {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		if h.evict(c, websocket.StatusPolicyViolation) {
			h.evicted.Add(1)
			slog.Warn("websocket client too slow, disconnected", "run_id", c.runID)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Evicted returns how many clients were dropped for falling behind.
func (h *Hub) Evicted() int64 { return h.evicted.Load() }

// Close disconnects every client with "going away".
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.reason = websocket.StatusGoingAway
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// remove forgets c after its handler returned.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// evict closes c's queue so its handler closes the connection with reason.
func (h *Hub) evict(c *client, reason websocket.StatusCode) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	c.reason = reason
	close(c.send)
	delete(h.clients, c)
	return true
}

func closeText(code websocket.StatusCode) string {
	switch code {
	case websocket.StatusPolicyViolation:
		return "client too slow"
	case websocket.StatusGoingAway:
		return "server shutting down"
	default:
		return ""
	}
}
