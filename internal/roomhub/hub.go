// Package roomhub streams room lifecycle events to websocket subscribers,
// optionally sharing them across instances over Redis pub/sub.
package roomhub

import (
	"coinflip/backend/internal/config"
	"coinflip/backend/internal/models"
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Relay carries encoded events between instances.
type Relay interface {
	Publish(ctx context.Context, payload []byte) error
	// Subscribe delivers payloads until ctx is done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan []byte, error)
}

// Hub is the feed's manager loop. Clients is only touched from Run.
type Hub struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client

	outgoing  chan models.RoomEvent
	broadcast chan models.RoomEvent
	countCh   chan chan int
	done      chan struct{}

	relay Relay
}

// NewHub creates a hub. A nil relay keeps events inside this process.
func NewHub(relay Relay) *Hub {
	return &Hub{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		outgoing:     make(chan models.RoomEvent, config.FeedBufferSize),
		broadcast:    make(chan models.RoomEvent, config.FeedBufferSize),
		countCh:      make(chan chan int),
		done:         make(chan struct{}),
		relay:        relay,
	}
}

// PublishRoomEvent queues an event for delivery. It never blocks; when the queue
// is full the event is dropped.
func (h *Hub) PublishRoomEvent(event models.RoomEvent) {
	select {
	case h.outgoing <- event:
	default:
		logrus.WithFields(logrus.Fields{"room_id": event.Room.ID, "type": event.Type}).Warn("Room feed queue full, event dropped")
	}
}

// Register hands client to the loop. It reports false once the hub has stopped.
func (h *Hub) Register(client Client) bool {
	select {
	case h.RegisterCh <- client:
		return true
	case <-h.done:
		return false
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Count returns the number of registered clients. It blocks until Run serves it.
func (h *Hub) Count() int {
	reply := make(chan int, 1)
	select {
	case h.countCh <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.relay != nil {
		if err := h.startRelayListener(ctx); err != nil {
			logrus.WithError(err).Error("Room feed relay subscribe failed, serving local events only")
			h.relay = nil
		}
	}
	go h.drainOutgoing(ctx)

	logrus.Info("Room feed hub started")
	for {
		select {
		case <-ctx.Done():
			for id, client := range h.Clients {
				client.Close()
				delete(h.Clients, id)
			}
			logrus.Info("Room feed hub stopped")
			return

		case client := <-h.RegisterCh:
			if old, ok := h.Clients[client.GetClientID()]; ok && old != client {
				old.Close()
			}
			h.Clients[client.GetClientID()] = client
			logrus.WithField("client_id", client.GetClientID()).Debug("Feed client registered")

		case client := <-h.UnregisterCh:
			h.remove(client)

		case reply := <-h.countCh:
			reply <- len(h.Clients)

		case event := <-h.broadcast:
			for id, client := range h.Clients {
				select {
				case client.GetSendChannel() <- event:
				default:
					logrus.WithField("client_id", id).Warn("Feed client too slow, dropping")
					h.remove(client)
				}
			}
		}
	}
}

// remove closes client if it is still the registered one.
func (h *Hub) remove(client Client) {
	id := client.GetClientID()
	if current, ok := h.Clients[id]; ok && current == client {
		delete(h.Clients, id)
		client.Close()
		logrus.WithField("client_id", id).Debug("Feed client unregistered")
	}
}

// drainOutgoing hands queued events to Redis or, without a relay, straight to the broadcast loop.
func (h *Hub) drainOutgoing(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-h.outgoing:
			if h.relay == nil {
				h.deliver(ctx, event)
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logrus.WithError(err).Error("Failed to encode room event")
				continue
			}
			if err := h.relay.Publish(ctx, payload); err != nil {
				logrus.WithError(err).WithField("room_id", event.Room.ID).Warn("Relay publish failed, delivering locally")
				h.deliver(ctx, event)
			}
		}
	}
}

func (h *Hub) startRelayListener(ctx context.Context) error {
	ch, err := h.relay.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for payload := range ch {
			var event models.RoomEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				logrus.WithError(err).Warn("Error decoding relayed room event")
				continue
			}
			h.deliver(ctx, event)
		}
	}()
	return nil
}

func (h *Hub) deliver(ctx context.Context, event models.RoomEvent) {
	select {
	case h.broadcast <- event:
	case <-ctx.Done():
	}
}
