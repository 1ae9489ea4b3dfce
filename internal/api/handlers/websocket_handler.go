// server/internal/api/handlers/websocket_handler.go
package handlers

import (
	"net/http"

	"darkstore-dispatch-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	Hub *socket.Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from another origin; CORS policy is enforced
	// by the HTTP middleware on the rest of the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs handles GET /ws?storeId=... and streams dispatch events for the
// requested store until the client disconnects.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	storeID := c.Query("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storeId query parameter is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	h.Hub.Register(storeID, conn)
	defer func() {
		h.Hub.Unregister(storeID, conn)
		_ = conn.Close()
	}()

	// Drain the connection; the feed is one-way, reads only detect close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
