// Package broadcast fans market snapshots out to WebSocket observers.
// Adapted from the teacher's internal/broadcast/server.go: a Hub
// receives one snapshot per market transition and pushes it to every
// connected client; new clients first receive the ring buffer's
// recent history, streamed as individual small messages rather than
// one large blocking payload.
package broadcast

import (
	"net/http"

	"distmarket/internal/market"
	"distmarket/internal/state"
	"distmarket/internal/wire"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains active clients and broadcasts wire-encoded snapshots
// to all of them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	buffer     *state.RingBuffer
	log        zerolog.Logger
}

// NewHub creates a broadcast hub backed by buffer for history replay.
func NewHub(buffer *state.RingBuffer, log zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		buffer:     buffer,
		log:        log,
	}
}

// Run consumes snapshots from input and fans them out until input is
// closed. Intended to be launched in its own goroutine.
func (h *Hub) Run(input <-chan market.Snapshot) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.log.Info().Int("clients", len(h.clients)).Msg("broadcast: client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Info().Int("clients", len(h.clients)).Msg("broadcast: client disconnected")
			}
		case snap, ok := <-input:
			if !ok {
				return
			}
			msg := wire.AppendSnapshot(make([]byte, 0, 128), snap)
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client — drop this tick rather than stall the hub.
				}
			}
		}
	}
}

// ServeHTTP upgrades r to a WebSocket and registers the resulting
// client with the hub, after replaying recent history.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("broadcast: upgrade failed")
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 4096)}

	// Streaming-history protocol: a count header, then one message per
	// snapshot, so the client never blocks decoding one giant payload.
	if h.buffer != nil {
		snapshots := h.buffer.GetAll()
		if len(snapshots) > 0 {
			n := uint32(len(snapshots))
			header := []byte{0xce, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
			if err := conn.WriteMessage(websocket.BinaryMessage, header); err != nil {
				h.log.Warn().Err(err).Msg("broadcast: failed to send history header")
				conn.Close()
				return
			}
			for _, snap := range snapshots {
				msg := wire.AppendSnapshot(make([]byte, 0, 128), snap)
				if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
					h.log.Warn().Err(err).Msg("broadcast: history stream interrupted")
					conn.Close()
					return
				}
			}
		}
	}

	client.hub.register <- client
	go client.writePump()
	go client.readPump()
}

// Client is one connected WebSocket observer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		w, err := c.conn.NextWriter(websocket.BinaryMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
}
