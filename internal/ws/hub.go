package ws

import (
	"context"
	"log"
	"sync"

	"github.com/YRUSONOZ/stable-ui/internal/generate/repository"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// Hub fans every payload published on the global job-updates channel out
// to all connected websocket clients.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	redis      *redis.Client
	mu         sync.Mutex
}

// NewHub creates a new Hub
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		redis:      rdb,
	}
}

// Run pumps registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeUpdates(ctx)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[info] request_id=internal operation=ws_hub client connected, total=%d", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) subscribeUpdates(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, repository.GlobalEventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case h.broadcast <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}
}

// RegisterClient adds a connection to the hub
func (h *Hub) RegisterClient(conn *websocket.Conn) {
	h.register <- conn
}

// UnregisterClient removes a connection from the hub
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.unregister <- conn
}
