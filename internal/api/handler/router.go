// Package handler exposes the coinflip engine over HTTP.
package handler

import (
	"coinflip/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every route. Reads are public; mutations need an identity.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", h.Health)

	rooms := r.Group("/coinflips")
	{
		rooms.GET("", h.ListRooms)
		rooms.GET("/ws", h.ServeRoomFeed)
		rooms.GET("/:id", h.GetRoom)

		authed := rooms.Group("", auth.RequireIdentity(h.Verifier))
		authed.POST("", h.CreateRoom)
		authed.POST("/:id/join", h.JoinRoom)
		authed.POST("/:id/flip", h.FlipRoom)
	}
	return r
}
