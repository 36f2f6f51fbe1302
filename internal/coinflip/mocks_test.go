package coinflip_test

import (
	"coinflip/backend/internal/models"
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockNotifier is a testify mock of coinflip.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, req models.TransferRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.RoomEvent
}

func (p *recordingPublisher) PublishRoomEvent(event models.RoomEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Types() []models.RoomEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.RoomEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// sequenceCoin replays a fixed sequence of tosses, then repeats the last one.
type sequenceCoin struct {
	mu    sync.Mutex
	seq   []bool
	calls int
}

func newSequenceCoin(seq ...bool) *sequenceCoin {
	return &sequenceCoin{seq: seq}
}

func (c *sequenceCoin) Toss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	if i >= len(c.seq) {
		i = len(c.seq) - 1
	}
	c.calls++
	return c.seq[i]
}

func (c *sequenceCoin) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
