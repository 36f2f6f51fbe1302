package storage

import (
	"coinflip/backend/internal/models"
	"context"
	"sync"
)

// roomSlot owns one room. Its mutex is the per-room critical section.
type roomSlot struct {
	mu   sync.Mutex
	room *models.Room
}

// MemoryStore keeps rooms in process memory. The outer lock only guards the map,
// so transitions on different rooms never wait on each other.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*roomSlot
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*roomSlot)}
}

// SaveRoom inserts a new room.
func (s *MemoryStore) SaveRoom(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return ErrRoomExists
	}
	s.rooms[room.ID] = &roomSlot{room: room.Clone()}
	return nil
}

func (s *MemoryStore) slot(roomID string) (*roomSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.rooms[roomID]
	return slot, ok
}

// GetRoomByID returns a copy of the room.
func (s *MemoryStore) GetRoomByID(_ context.Context, roomID string) (*models.Room, error) {
	slot, ok := s.slot(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.room.Clone(), nil
}

// ListOpenRooms returns open rooms, oldest first.
func (s *MemoryStore) ListOpenRooms(ctx context.Context) ([]models.Room, error) {
	return s.ListRooms(ctx, models.RoomStatusOpen)
}

// ListRooms returns copies of the rooms in the given status, oldest first.
func (s *MemoryStore) ListRooms(_ context.Context, status models.RoomStatus) ([]models.Room, error) {
	s.mu.RLock()
	slots := make([]*roomSlot, 0, len(s.rooms))
	for _, slot := range s.rooms {
		slots = append(slots, slot)
	}
	s.mu.RUnlock()

	rooms := make([]models.Room, 0, len(slots))
	for _, slot := range slots {
		slot.mu.Lock()
		if status == "" || slot.room.Status == status {
			rooms = append(rooms, *slot.room.Clone())
		}
		slot.mu.Unlock()
	}
	sortRooms(rooms)
	return rooms, nil
}

// CountRooms returns how many rooms exist in any status.
func (s *MemoryStore) CountRooms(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rooms)), nil
}

// UpdateRoomIf runs mutate under the room's own lock.
func (s *MemoryStore) UpdateRoomIf(_ context.Context, roomID string, expected models.RoomStatus, mutate MutateFunc) (*models.Room, error) {
	slot, ok := s.slot(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.room.Status != expected {
		return nil, &StatusMismatchError{Expected: expected, Actual: slot.room.Status}
	}

	next := slot.room.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := checkTransition(slot.room, next); err != nil {
		return nil, err
	}

	slot.room = next
	return next.Clone(), nil
}
