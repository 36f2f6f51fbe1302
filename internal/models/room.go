package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus is the lifecycle state of a coinflip room.
// A room only ever moves forward: open -> matched -> finished.
type RoomStatus string

const (
	RoomStatusOpen     RoomStatus = "open"
	RoomStatusMatched  RoomStatus = "matched"
	RoomStatusFinished RoomStatus = "finished"
)

// IsValid reports whether s is one of the known statuses.
func (s RoomStatus) IsValid() bool {
	switch s {
	case RoomStatusOpen, RoomStatusMatched, RoomStatusFinished:
		return true
	}
	return false
}

// Rank orders statuses along the lifecycle. Unknown statuses rank -1.
func (s RoomStatus) Rank() int {
	switch s {
	case RoomStatusOpen:
		return 0
	case RoomStatusMatched:
		return 1
	case RoomStatusFinished:
		return 2
	}
	return -1
}

// Stake is what one party puts into a room.
type Stake struct {
	// UserID is the stable identifier provided by the identity verifier.
	UserID string `json:"userId"`
	// DisplayName is shown to other players.
	DisplayName string `json:"displayName"`
	// Items keeps the order in which the caller submitted them.
	Items []string `json:"items"`
	// TotalValue is asserted by the caller and only checked against the tolerance band on join.
	TotalValue float64 `json:"totalValue"`
	// Side is the declared coin face, SideNone when the party has no preference.
	Side Side `json:"side"`
}

// HasSide reports whether the party declared a coin face.
func (s *Stake) HasSide() bool {
	return s != nil && s.Side != SideNone
}

// Outcome is the resolved result of a flip.
type Outcome struct {
	Outcome          Side      `json:"outcome"`
	WinnerUserID     string    `json:"winnerUserId"`
	LoserUserID      string    `json:"loserUserId"`
	TransferredItems []string  `json:"transferredItems"`
	FinishedAt       time.Time `json:"finishedAt"`
}

// Room is one wager between a host and, eventually, a joiner.
// Joiner is set iff Status is matched or finished; Result is set iff Status is finished.
type Room struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	Status    RoomStatus `json:"status"`
	Host      Stake      `json:"host"`
	Joiner    *Stake     `json:"joiner"`
	Result    *Outcome   `json:"result"`
}

// NewRoom builds an open room hosted by the given stake.
func NewRoom(host Stake, now time.Time) *Room {
	return &Room{
		ID:        uuid.New().String(),
		CreatedAt: now,
		Status:    RoomStatusOpen,
		Host:      host,
	}
}

// Clone returns a deep copy so callers can't mutate stored state through shared slices.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Host = r.Host.clone()
	if r.Joiner != nil {
		j := r.Joiner.clone()
		c.Joiner = &j
	}
	if r.Result != nil {
		res := *r.Result
		res.TransferredItems = cloneItems(r.Result.TransferredItems)
		c.Result = &res
	}
	return &c
}

func (s Stake) clone() Stake {
	s.Items = cloneItems(s.Items)
	return s
}

func cloneItems(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
