package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser frontend may be served from another origin; CORS
	// policy is enforced at the HTTP layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades the connection and keeps it registered with the hub
// until the client goes away. Incoming messages are discarded; the socket
// is push-only.
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
			return
		}

		hub.RegisterClient(conn)
		defer hub.UnregisterClient(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
