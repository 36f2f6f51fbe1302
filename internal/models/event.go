package models

// RoomEventType names a lifecycle transition pushed to feed subscribers.
type RoomEventType string

const (
	RoomEventCreated  RoomEventType = "room_created"
	RoomEventJoined   RoomEventType = "room_joined"
	RoomEventFinished RoomEventType = "room_finished"
)

// RoomEvent is one message on the lobby feed.
type RoomEvent struct {
	Type RoomEventType `json:"type"`
	Room Room          `json:"room"`
}

// TransferRequest is the payload handed to transfer collaborators after a flip.
type TransferRequest struct {
	RoomID       string   `json:"roomId"`
	Outcome      Side     `json:"outcome"`
	WinnerUserID string   `json:"winnerUserId"`
	LoserUserID  string   `json:"loserUserId"`
	Items        []string `json:"items"`
}

// NewTransferRequest builds the payload for a finished room.
func NewTransferRequest(roomID string, o Outcome) TransferRequest {
	return TransferRequest{
		RoomID:       roomID,
		Outcome:      o.Outcome,
		WinnerUserID: o.WinnerUserID,
		LoserUserID:  o.LoserUserID,
		Items:        cloneItems(o.TransferredItems),
	}
}
