package roomhub_test

import (
	"coinflip/backend/internal/models"
	"context"
	"sync"
)

type MockClient struct {
	id          string
	RecvChannel chan models.RoomEvent

	mu     sync.Mutex
	closed bool
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{id: id, RecvChannel: make(chan models.RoomEvent, buffer)}
}

func (c *MockClient) GetClientID() string                     { return c.id }
func (c *MockClient) GetSendChannel() chan<- models.RoomEvent { return c.RecvChannel }
func (c *MockClient) Run()                                    {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		panic("client closed twice")
	}
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// memoryRelay loops published payloads back to every subscriber, like a Redis channel.
type memoryRelay struct {
	mu        sync.Mutex
	subs      []chan []byte
	published int
	failWith  error
}

func (r *memoryRelay) Publish(_ context.Context, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published++
	if r.failWith != nil {
		return r.failWith
	}
	for _, s := range r.subs {
		s <- payload
	}
	return nil
}

func (r *memoryRelay) Subscribe(ctx context.Context) (<-chan []byte, error) {
	ch := make(chan []byte, 16)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range r.subs {
			if s == ch {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (r *memoryRelay) Published() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.published
}
