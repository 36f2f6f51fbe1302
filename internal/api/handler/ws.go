package handler

import (
	"coinflip/backend/internal/roomhub"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The lobby feed is public, same as GET /coinflips.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeRoomFeed upgrades to a websocket that streams room events.
func (h *Handler) ServeRoomFeed(c *gin.Context) {
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Room feed disabled"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logrus.WithError(err).Debug("Feed upgrade failed")
		return
	}

	client := roomhub.NewWebSocketClient(uuid.NewString(), conn, h.Hub)
	if !h.Hub.Register(client) {
		_ = conn.Close()
		return
	}
	client.Run()
}
