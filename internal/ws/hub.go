package ws

import (
	"context"
	"sync"

	"go-invoice-ws/internal/logger"

	"github.com/gofiber/contrib/websocket"
)

const broadcastBuffer = 256

// Hub fans every broadcast message out to all connected dashboard clients
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Join registers a connection. It returns false once the hub has stopped;
// the caller should then end the connection.
func (h *Hub) Join(conn *websocket.Conn) bool {
	select {
	case h.Register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters a connection. After the hub stopped it returns at once,
// since Run already closed every client.
func (h *Hub) Leave(conn *websocket.Conn) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

// Send queues a message for broadcast. It never blocks: when the queue is
// full the message is dropped.
func (h *Hub) Send(message []byte) bool {
	select {
	case h.Broadcast <- message:
		return true
	default:
		log := logger.WithComponent("ws-hub")
		log.Warn().Int("size", len(message)).Msg("Broadcast queue full, dropping message")
		return false
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Run serves the hub until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	log := logger.WithComponent("ws-hub")

	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			log.Info().Msg("Hub stopped")
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			total := len(h.Clients)
			h.mutex.Unlock()
			log.Debug().Int("clients", total).Msg("New WS client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Warn().Err(err).Msg("Dropping WS client after failed write")
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
