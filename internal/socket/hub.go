// server/internal/socket/hub.go
package socket

import (
	"encoding/json"
	"sync"

	"darkstore-dispatch-api-server/internal/dispatch"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// client wraps a connection with a write mutex. gorilla/websocket supports at
// most one concurrent writer per connection, and dispatches publish
// concurrently, so every write goes through write().
type client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub manages the WebSocket connections of dashboard clients, grouped by the
// store they watch. The dispatch service publishes one event per committed
// group; the hub fans it out to every subscriber of that store.
type Hub struct {
	// clients maps storeID to the connections subscribed to it.
	clients map[string]map[*websocket.Conn]*client
	mu      sync.RWMutex
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*client),
		log:     log,
	}
}

// Register subscribes a connection to a store's dispatch feed.
func (h *Hub) Register(storeID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[storeID] == nil {
		h.clients[storeID] = make(map[*websocket.Conn]*client)
	}
	h.clients[storeID][conn] = &client{conn: conn}
	h.log.Debug().Str("store", storeID).Msg("websocket client registered")
}

// Unregister drops a connection.
func (h *Hub) Unregister(storeID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[storeID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, storeID)
		}
	}
}

// PublishDispatch broadcasts a dispatch event to every subscriber of the
// event's store. Best effort: write failures drop the client, nothing more.
func (h *Hub) PublishDispatch(event dispatch.DispatchEvent) {
	payload, err := json.Marshal(map[string]any{"type": "dispatch", "data": event})
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to encode dispatch event")
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[event.StoreID]))
	for _, cl := range h.clients[event.StoreID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.write(payload); err != nil {
			h.log.Debug().Err(err).Str("store", event.StoreID).Msg("dropping websocket client")
			h.Unregister(event.StoreID, cl.conn)
			_ = cl.conn.Close()
		}
	}
}
