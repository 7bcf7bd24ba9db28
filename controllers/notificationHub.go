package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	EventNewOrder       = "newOrder"
	EventOrderStatus    = "orderStatus"
	EventNewInteraction = "newInteraction"
	EventInteractionDue = "interactionDue"
)

const writeWait = 10 * time.Second

type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub fans dashboard events out to every connected websocket client.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
}

// NewHub accepts websocket upgrades from allowedOrigins, or from anywhere when it is empty.
func NewHub(allowedOrigins []string) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
	}
}

func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("websocket upgrade failed:", err)
			return
		}
		defer conn.Close()

		h.mu.Lock()
		h.clients[conn] = true
		h.mu.Unlock()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				break
			}
		}
	}
}

// Clients is the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends event to all clients, dropping the ones that fail.
func (h *Hub) Broadcast(event string, payload interface{}) {
	if h == nil {
		return
	}
	messageBytes, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		log.Println("error marshaling message:", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, messageBytes); err != nil {
			log.Println("error writing message:", err)
			client.Close()
			delete(h.clients, client)
		}
	}
}
