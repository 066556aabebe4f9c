package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	sseChannelBuffer = 32
	sseHeartbeat     = 30 * time.Second
)

// Event types pushed to the browser.
const (
	eventSessionState  = "session_state"
	eventBoardReplaced = "board_replaced"
	eventImageReady    = "image_ready"
	eventRevealStarted = "reveal_started"
	eventItemRevealed  = "item_revealed"
	eventBatchSettled  = "batch_settled"
)

// client represents a single SSE connection.
type client struct {
	ch        chan string
	sessionID string
}

// Broadcaster manages SSE clients grouped by session.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]struct{}),
	}
}

// Register adds a client for a session and returns it.
func (b *Broadcaster) Register(sessionID string) *client {
	c := &client{
		ch:        make(chan string, sseChannelBuffer),
		sessionID: sessionID,
	}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	return c
}

// Unregister removes a client and closes its channel.
func (b *Broadcaster) Unregister(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.ch)
	}
	b.mu.Unlock()
}

// CloseSession disconnects every client of a session. Their streams end,
// so browsers reconnect and find the session gone.
func (b *Broadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.clients {
		if c.sessionID == sessionID {
			delete(b.clients, c)
			close(c.ch)
		}
	}
}

// Broadcast sends a message to all clients of a session.
func (b *Broadcaster) Broadcast(sessionID, data string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for c := range b.clients {
		if c.sessionID == sessionID {
			select {
			case c.ch <- data:
			default:
				// Channel full, skip slow client.
			}
		}
	}
}

// Publish encodes an event as JSON with its type and broadcasts it.
func (b *Broadcaster) Publish(sessionID, eventType string, fields map[string]any) {
	evt := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		evt[k] = v
	}
	evt["type"] = eventType

	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	b.Broadcast(sessionID, string(data))
}

// ClientCount returns the number of connected clients for a session.
func (b *Broadcaster) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for c := range b.clients {
		if c.sessionID == sessionID {
			n++
		}
	}
	return n
}

// ServeSSE handles an SSE connection for a session.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, sessionID string, onConnect func(c *client)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "不支持事件流", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := b.Register(sessionID)
	defer b.Unregister(c)

	if onConnect != nil {
		onConnect(c)
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
