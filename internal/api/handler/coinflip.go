package handler

import (
	"coinflip/backend/internal/auth"
	"coinflip/backend/internal/coinflip"
	"coinflip/backend/internal/models"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// stakeBody is the create/join payload. Pointers tell a missing field from a zero one.
type stakeBody struct {
	Items      []string    `json:"items"`
	TotalValue *float64    `json:"totalValue"`
	Side       models.Side `json:"side"`
}

func (b stakeBody) input() coinflip.StakeInput {
	return coinflip.StakeInput{Items: b.Items, TotalValue: b.TotalValue, Side: b.Side}
}

// bindStake decodes the body leniently: wrong types or an empty body become a
// missing field, which the engine reports as a malformed stake.
func bindStake(c *gin.Context) stakeBody {
	var raw map[string]json.RawMessage
	data, err := io.ReadAll(c.Request.Body)
	if err != nil || json.Unmarshal(data, &raw) != nil {
		return stakeBody{}
	}
	var body stakeBody
	if v, ok := raw["items"]; ok && json.Unmarshal(v, &body.Items) != nil {
		body.Items = nil
	}
	if v, ok := raw["totalValue"]; ok {
		var total float64
		if json.Unmarshal(v, &total) == nil {
			body.TotalValue = &total
		}
	}
	if v, ok := raw["side"]; ok {
		_ = json.Unmarshal(v, &body.Side)
	}
	return body
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// ListRooms returns open rooms, oldest first.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Service.ListOpenRooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, rooms)
}

func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.Service.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, room)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	caller, _ := auth.IdentityFrom(c)
	room, err := h.Service.CreateRoom(c.Request.Context(), caller, bindStake(c).input())
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, room)
}

func (h *Handler) JoinRoom(c *gin.Context) {
	caller, _ := auth.IdentityFrom(c)
	room, err := h.Service.JoinRoom(c.Request.Context(), caller, c.Param("id"), bindStake(c).input())
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, room)
}

func (h *Handler) FlipRoom(c *gin.Context) {
	caller, _ := auth.IdentityFrom(c)
	outcome, err := h.Service.FlipRoom(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, outcome)
}
