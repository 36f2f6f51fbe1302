package handler

import (
	"coinflip/backend/internal/auth"
	"coinflip/backend/internal/coinflip"
	"coinflip/backend/internal/roomhub"
)

// Handler holds what the HTTP surface talks to. Hub may be nil to disable the feed.
type Handler struct {
	Service  *coinflip.Service
	Hub      *roomhub.Hub
	Verifier *auth.Verifier
}

func NewHandler(svc *coinflip.Service, hub *roomhub.Hub, v *auth.Verifier) *Handler {
	return &Handler{Service: svc, Hub: hub, Verifier: v}
}
