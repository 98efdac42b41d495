package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and attaches it to the hub. The player id
// comes from the request layer (auth is its problem, not ours).
func ServeWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.GetString("playerId")
		if playerID == "" {
			playerID = c.Query("playerId")
		}
		if playerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "playerId required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := &Client{
			PlayerID: playerID,
			Conn:     conn,
			Send:     make(chan OutgoingMessage, 32),
			Hub:      hub,
		}
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
