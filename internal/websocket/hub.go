// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Control message types. Event types are defined by their producers.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"

	// MessageTypeSnapshot asks the hub to resend the retained events.
	MessageTypeSnapshot = "snapshot"
)

// Message is the JSON frame sent to clients. Replayed marks a retained event
// sent on connect or on a snapshot request rather than as it happened.
type Message struct {
	Type     string      `json:"type"`
	Data     interface{} `json:"data"`
	Replayed bool        `json:"replayed,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// The latest message of every retained type is kept and replayed to clients
// when they connect, so a dashboard opened between monitor passes still
// shows the last result.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	snapshots  chan *Client
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	retainTypes map[string]bool
	retained    map[string]Message
}

// NewHub creates a Hub that retains the latest message of each of the given
// types. Call RunWithContext to start it.
func NewHub(retain ...string) *Hub {
	types := make(map[string]bool, len(retain))
	for _, t := range retain {
		types[t] = true
	}
	return &Hub{
		broadcast:   make(chan Message, 256),
		snapshots:   make(chan *Client, 16),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		retainTypes: types,
		retained:    make(map[string]Message, len(retain)),
	}
}

// RunWithContext processes registrations and broadcasts until ctx is done,
// then closes every client and returns ctx.Err().
//
// Shutdown is checked first and lifecycle events before broadcasts, so a
// client registered before a broadcast always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		case client := <-h.snapshots:
			h.sendSnapshot(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Info().
		Str("component", "websocket-hub").
		Str("user", client.user).
		Int("total_clients", n).
		Msg("websocket client connected")

	h.sendSnapshot(client)
}

// sendSnapshot replays retained messages to one registered client, ordered
// by type. Messages that do not fit in the client's buffer are skipped; the
// next live event supersedes them anyway.
func (h *Hub) sendSnapshot(client *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return
	}
	types := make([]string, 0, len(h.retained))
	for t := range h.retained {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		msg := h.retained[t]
		msg.Replayed = true
		select {
		case client.send <- msg:
		default:
			return
		}
	}
}

// requestSnapshot queues a replay for client without blocking.
func (h *Hub) requestSnapshot(client *Client) {
	select {
	case h.snapshots <- client:
	default:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Info().
		Str("component", "websocket-hub").
		Str("user", client.user).
		Int("total_clients", n).
		Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	n := h.GetClientCount()
	h.closeAllClients()
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", n).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients returns clients in id order. Must be called with mu held.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers message to every client in id order. Clients
// whose buffer is full are disconnected.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.retainTypes[message.Type] {
		h.retained[message.Type] = message
	}

	var dropped []*Client
	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			dropped = append(dropped, client)
		}
	}
	for _, client := range dropped {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().
			Str("component", "websocket-hub").
			Str("user", client.user).
			Msg("dropping slow websocket client")
	}
	if len(dropped) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// BroadcastJSON queues a message for every connected client. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
