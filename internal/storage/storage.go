// Package storage holds coinflip rooms. It has no business rules beyond
// refusing transitions that would move a room backwards.
package storage

import (
	"coinflip/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomExists        = errors.New("room already exists")
	ErrStatusMismatch    = errors.New("room status mismatch")
	ErrInvalidTransition = errors.New("room status can only move forward")
)

// StatusMismatchError is returned by UpdateRoomIf when the stored status differs from the expected one.
type StatusMismatchError struct {
	Expected models.RoomStatus
	Actual   models.RoomStatus
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("room status is %s, expected %s", e.Actual, e.Expected)
}

func (e *StatusMismatchError) Unwrap() error { return ErrStatusMismatch }

// MutateFunc edits a private copy of a room inside the transition critical section.
// Returning an error aborts the update and is passed back to the caller unchanged.
type MutateFunc func(room *models.Room) error

// Storage is the room store used by the coinflip service and the admin CLI.
type Storage interface {
	SaveRoom(ctx context.Context, room *models.Room) error
	GetRoomByID(ctx context.Context, roomID string) (*models.Room, error)
	ListOpenRooms(ctx context.Context) ([]models.Room, error)
	// ListRooms returns rooms with the given status, or every room when status is empty.
	ListRooms(ctx context.Context, status models.RoomStatus) ([]models.Room, error)
	CountRooms(ctx context.Context) (int64, error)

	// UpdateRoomIf applies mutate only if the room is currently in the expected status.
	// Concurrent calls for the same room are serialized; at most one of several callers
	// expecting the same status can succeed.
	UpdateRoomIf(ctx context.Context, roomID string, expected models.RoomStatus, mutate MutateFunc) (*models.Room, error)
}

// checkTransition guards the invariants every store must keep regardless of the mutation.
func checkTransition(before, after *models.Room) error {
	if after.ID != before.ID {
		return fmt.Errorf("%w: room id changed", ErrInvalidTransition)
	}
	if !after.Status.IsValid() || after.Status.Rank() < before.Status.Rank() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, before.Status, after.Status)
	}
	if before.Status == models.RoomStatusFinished {
		return fmt.Errorf("%w: room is finished", ErrInvalidTransition)
	}
	return nil
}

func sortRooms(rooms []models.Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
}
