package roomhub

import "coinflip/backend/internal/models"

// Client is one feed subscriber. The hub owns the send channel's lifetime:
// it calls Close exactly once, when the client is unregistered or dropped.
type Client interface {
	// GetClientID returns a key unique among connected clients.
	GetClientID() string
	// GetSendChannel is where the hub pushes events for this client.
	GetSendChannel() chan<- models.RoomEvent
	// Run starts the client's pumps.
	Run()
	// Close stops the client's write side.
	Close()
}
