// Package coinflip owns the room lifecycle: creating wager rooms, matching a
// challenger within the value tolerance, and resolving the flip.
package coinflip

import (
	"coinflip/backend/internal/config"
	"coinflip/backend/internal/models"
	"coinflip/backend/internal/storage"
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier receives the outcome of every flip so items can be moved.
// It is called off the request path; its errors are logged and dropped.
type Notifier interface {
	Notify(ctx context.Context, req models.TransferRequest) error
}

// EventPublisher fans room transitions out to feed subscribers. It must not block.
type EventPublisher interface {
	PublishRoomEvent(event models.RoomEvent)
}

// Rules are the matching rules a deployment can tune.
type Rules struct {
	// Tolerance is the allowed fractional deviation of the joiner's value from the host's.
	Tolerance float64
	// AllowSelfJoin lets a host join their own room.
	AllowSelfJoin bool
}

// DefaultRules is ±10% with self-join disabled.
func DefaultRules() Rules {
	return Rules{Tolerance: config.DefaultValueTolerance}
}

// StakeInput is a caller's stake as submitted. A nil Items or TotalValue means the field was missing.
type StakeInput struct {
	Items      []string
	TotalValue *float64
	Side       models.Side
}

// Service is the room lifecycle engine.
type Service struct {
	Storage storage.Storage
	Rules   Rules

	// OutcomeCoin draws the coin face; TieBreakCoin picks a winner when sides don't decide it.
	OutcomeCoin  Coin
	TieBreakCoin Coin
	// Now is the clock used for createdAt and finishedAt.
	Now func() time.Time

	notifier Notifier
	events   EventPublisher
	pending  sync.WaitGroup
}

// NewService creates the engine with fresh, independently seeded coins.
func NewService(s storage.Storage, rules Rules) *Service {
	return &Service{
		Storage:      s,
		Rules:        rules,
		OutcomeCoin:  NewCoin(),
		TieBreakCoin: NewCoin(),
		Now:          time.Now,
	}
}

// SetNotifier installs the transfer collaborator. nil disables notifications.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetEventPublisher installs the room feed. nil disables events.
func (s *Service) SetEventPublisher(p EventPublisher) {
	s.events = p
}

// Wait blocks until all in-flight transfer notifications have returned.
func (s *Service) Wait() {
	s.pending.Wait()
}

// CreateRoom opens a room hosted by caller.
func (s *Service) CreateRoom(ctx context.Context, caller models.Identity, in StakeInput) (*models.Room, error) {
	if caller.IsZero() {
		return nil, errNoIdentity
	}
	stake, err := buildStake(caller, in)
	if err != nil {
		return nil, err
	}

	room := models.NewRoom(stake, s.Now())
	logCtx := logrus.WithFields(logrus.Fields{"room_id": room.ID, "user_id": caller.UserID})

	if err := s.Storage.SaveRoom(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to save new room")
		return nil, err
	}

	logCtx.WithFields(logrus.Fields{"total_value": stake.TotalValue, "items": len(stake.Items), "side": stake.Side.String()}).Info("Room created")
	s.publish(models.RoomEventCreated, room)
	return room, nil
}

// JoinRoom matches caller against an open room. Checks run in this order:
// room exists, room is open, caller isn't the host, payload is well formed,
// value is inside the tolerance band.
func (s *Service) JoinRoom(ctx context.Context, caller models.Identity, roomID string, in StakeInput) (*models.Room, error) {
	if caller.IsZero() {
		return nil, errNoIdentity
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": caller.UserID})

	room, err := s.Storage.UpdateRoomIf(ctx, roomID, models.RoomStatusOpen, func(r *models.Room) error {
		if !s.Rules.AllowSelfJoin && r.Host.UserID == caller.UserID {
			return errOwnRoom
		}
		stake, err := buildStake(caller, in)
		if err != nil {
			return err
		}

		lower, upper := ToleranceRange(r.Host.TotalValue, s.Rules.Tolerance)
		if stake.TotalValue < lower || stake.TotalValue > upper {
			return &ValueMismatchError{Min: lower, Max: upper}
		}

		r.Joiner = &stake
		r.Status = models.RoomStatusMatched
		return nil
	})
	if err != nil {
		err = mapStorageError(roomID, err)
		logCtx.WithError(err).Warn("Join rejected")
		return nil, err
	}

	logCtx.WithField("total_value", room.Joiner.TotalValue).Info("Room matched")
	s.publish(models.RoomEventJoined, room)
	return room, nil
}

// FlipRoom resolves a matched room. Any authenticated caller may trigger it.
func (s *Service) FlipRoom(ctx context.Context, caller models.Identity, roomID string) (*models.Outcome, error) {
	if caller.IsZero() {
		return nil, errNoIdentity
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": caller.UserID})

	room, err := s.Storage.UpdateRoomIf(ctx, roomID, models.RoomStatusMatched, func(r *models.Room) error {
		if r.Joiner == nil {
			return &InvalidStateError{RoomID: r.ID, Status: r.Status, Expected: models.RoomStatusMatched}
		}
		face := DrawOutcome(s.OutcomeCoin)
		winner, loser := ResolveWinner(r.Host, *r.Joiner, face, s.TieBreakCoin)

		r.Status = models.RoomStatusFinished
		r.Result = &models.Outcome{
			Outcome:          face,
			WinnerUserID:     winner,
			LoserUserID:      loser,
			TransferredItems: TransferSet(r.Host, *r.Joiner),
			FinishedAt:       s.Now(),
		}
		return nil
	})
	if err != nil {
		err = mapStorageError(roomID, err)
		logCtx.WithError(err).Warn("Flip rejected")
		return nil, err
	}

	logCtx.WithFields(logrus.Fields{
		"outcome": room.Result.Outcome.String(),
		"winner":  room.Result.WinnerUserID,
		"loser":   room.Result.LoserUserID,
	}).Info("Room finished")

	s.publish(models.RoomEventFinished, room)
	s.dispatchTransfer(models.NewTransferRequest(room.ID, *room.Result))

	result := *room.Result
	result.TransferredItems = append([]string(nil), room.Result.TransferredItems...)
	return &result, nil
}

// GetRoom returns one room in any status.
func (s *Service) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.Storage.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, mapStorageError(roomID, err)
	}
	return room, nil
}

// ListOpenRooms returns rooms waiting for a challenger, oldest first.
func (s *Service) ListOpenRooms(ctx context.Context) ([]models.Room, error) {
	return s.Storage.ListOpenRooms(ctx)
}

// CountRooms returns how many rooms the store holds.
func (s *Service) CountRooms(ctx context.Context) (int64, error) {
	return s.Storage.CountRooms(ctx)
}

func buildStake(caller models.Identity, in StakeInput) (models.Stake, error) {
	if in.Items == nil || in.TotalValue == nil {
		return models.Stake{}, errMalformedStake
	}
	value := *in.TotalValue
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return models.Stake{}, errMalformedStake
	}
	items := make([]string, len(in.Items))
	copy(items, in.Items)
	return models.Stake{
		UserID:      caller.UserID,
		DisplayName: caller.DisplayName,
		Items:       items,
		TotalValue:  value,
		Side:        models.ParseSide(string(in.Side)),
	}, nil
}

func mapStorageError(roomID string, err error) error {
	var mismatch *storage.StatusMismatchError
	switch {
	case errors.Is(err, storage.ErrRoomNotFound):
		return ErrNotFound
	case errors.As(err, &mismatch):
		return &InvalidStateError{RoomID: roomID, Status: mismatch.Actual, Expected: mismatch.Expected}
	}
	return err
}

func (s *Service) publish(t models.RoomEventType, room *models.Room) {
	if s.events == nil {
		return
	}
	s.events.PublishRoomEvent(models.RoomEvent{Type: t, Room: *room.Clone()})
}

// dispatchTransfer notifies the transfer collaborator on its own goroutine.
// The room is already finished; nothing here can change it.
func (s *Service) dispatchTransfer(req models.TransferRequest) {
	if s.notifier == nil {
		return
	}
	n := s.notifier
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		logCtx := logrus.WithField("room_id", req.RoomID)
		defer func() {
			if r := recover(); r != nil {
				logCtx.WithField("panic", r).Error("Transfer notifier panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), config.TransferDispatchTimeout)
		defer cancel()
		if err := n.Notify(ctx, req); err != nil {
			logCtx.WithError(err).Warn("Transfer notify failed")
			return
		}
		logCtx.Debug("Transfer notified")
	}()
}
