package broadcast

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HandleConnections はWebSocket接続へのアップグレードを行い、
// クエリで指定されたルームのトピックに購読者として登録します。
func HandleConnections(c *gin.Context, hub *Hub, upgrader websocket.Upgrader, logger *zap.Logger) {
	roomID := c.Query("roomId")
	player := c.Query("player")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	hub.Register(&Client{Conn: conn, RoomID: roomID, Player: player})
}
