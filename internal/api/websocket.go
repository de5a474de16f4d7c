// internal/api/websocket.go
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mirelio/gameforge/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The API is same-origin behind the CORS middleware; tighten this
		// when a production origin is known.
		return true
	},
}

// StatusMessage is the envelope pushed to status subscribers: playback
// transitions, video-surface commands, and processing progress.
type StatusMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StatusHub fans status messages out to all connected websocket clients. A
// slow client drops messages rather than blocking the broadcaster.
type StatusHub struct {
	mu      sync.RWMutex
	clients map[*hubClient]bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewStatusHub creates an empty hub.
func NewStatusHub() *StatusHub {
	return &StatusHub{
		clients: make(map[*hubClient]bool),
	}
}

// Broadcast sends one message to every connected client.
func (h *StatusHub) Broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(StatusMessage{Type: msgType, Payload: payload})
	if err != nil {
		log.Printf("status hub: failed to encode %s message: %v", msgType, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *StatusHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *StatusHub) register(client *hubClient) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

func (h *StatusHub) unregister(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// HandleStatusSocket upgrades the connection and streams status messages
// until the client goes away.
func (h *StatusHub) HandleStatusSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("status hub: upgrade failed: %v", err)
		return
	}

	client := &hubClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.register(client)
	logger.Get().Debug("status client connected", logger.Fields{"clients": h.ClientCount()})

	go h.writePump(client)
	h.readPump(client)
}

func (h *StatusHub) writePump(client *hubClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages; the socket is push-only. Returning
// unregisters the client.
func (h *StatusHub) readPump(client *hubClient) {
	defer h.unregister(client)

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
