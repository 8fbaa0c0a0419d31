package wshub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"

	"songswitcher/internal/events"
)

// ServerMessage is the JSON structure sent to overlay clients.
type ServerMessage struct {
	Type   string         `json:"t"`
	Name   string         `json:"n,omitempty"`
	Scene  string         `json:"s,omitempty"`
	Values map[string]any `json:"v,omitempty"`
	At     int64          `json:"at,omitempty"`
}

// Client represents a single overlay WebSocket connection.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub fans messages out to every connected overlay.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.Send)
		delete(h.clients, id)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends to all clients. Non-blocking: drops if a channel is full.
func (h *Hub) Broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// Forward converts a bus event into an overlay message.
func (h *Hub) Forward(ev events.Event) {
	h.Broadcast(MessageFor(ev))
}

func MessageFor(ev events.Event) ServerMessage {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	return ServerMessage{
		Type:   string(ev.Kind),
		Name:   ev.Action,
		Scene:  ev.Scene,
		Values: ev.Variables,
		At:     at.UnixMilli(),
	}
}
