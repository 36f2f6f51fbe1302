package storage

import (
	"coinflip/backend/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRoomRecord_RoundTrip checks the row mapping for a room in each status.
func TestRoomRecord_RoundTrip(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	open := models.NewRoom(models.Stake{UserID: "h", DisplayName: "Host", Items: []string{"a", "b"}, TotalValue: 100, Side: models.SideHeads}, created)

	matched := open.Clone()
	matched.Status = models.RoomStatusMatched
	matched.Joiner = &models.Stake{UserID: "j", DisplayName: "Joiner", Items: []string{}, TotalValue: 95}

	finished := matched.Clone()
	finished.Status = models.RoomStatusFinished
	finished.Result = &models.Outcome{
		Outcome:          models.SideTails,
		WinnerUserID:     "j",
		LoserUserID:      "h",
		TransferredItems: []string{"a", "b"},
		FinishedAt:       created.Add(time.Minute),
	}

	for _, room := range []*models.Room{open, matched, finished} {
		t.Run(string(room.Status), func(t *testing.T) {
			rec := toRecord(room)
			assert.Equal(t, room, rec.toModel())
		})
	}
}

// TestRoomRecord_NilArraysBecomeEmpty keeps JSON output as [] instead of null.
func TestRoomRecord_NilArraysBecomeEmpty(t *testing.T) {
	rec := roomRecord{RoomID: "id", Status: string(models.RoomStatusOpen), HostUserID: "h"}
	room := rec.toModel()
	assert.NotNil(t, room.Host.Items)
	assert.Empty(t, room.Host.Items)
	assert.Equal(t, models.SideNone, room.Host.Side)
}
