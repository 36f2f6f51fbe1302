package storage

import (
	"coinflip/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// roomRecord is the flat row layout of a room in PostgreSQL.
type roomRecord struct {
	RoomID    string    `gorm:"primaryKey;type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
	Status    string    `gorm:"type:text;not null;index"`

	HostUserID      string         `gorm:"type:text;not null;index"`
	HostDisplayName string         `gorm:"type:text"`
	HostItems       pq.StringArray `gorm:"type:text[]"`
	HostTotalValue  float64
	HostSide        string `gorm:"type:text"`

	JoinerUserID      *string        `gorm:"type:text;index"`
	JoinerDisplayName *string        `gorm:"type:text"`
	JoinerItems       pq.StringArray `gorm:"type:text[]"`
	JoinerTotalValue  *float64
	JoinerSide        *string `gorm:"type:text"`

	Outcome          *string        `gorm:"type:text"`
	WinnerUserID     *string        `gorm:"type:text"`
	LoserUserID      *string        `gorm:"type:text"`
	TransferredItems pq.StringArray `gorm:"type:text[]"`
	FinishedAt       *time.Time
}

func (roomRecord) TableName() string { return "coinflip_rooms" }

func toRecord(r *models.Room) roomRecord {
	rec := roomRecord{
		RoomID:          r.ID,
		CreatedAt:       r.CreatedAt,
		Status:          string(r.Status),
		HostUserID:      r.Host.UserID,
		HostDisplayName: r.Host.DisplayName,
		HostItems:       pq.StringArray(nonNil(r.Host.Items)),
		HostTotalValue:  r.Host.TotalValue,
		HostSide:        string(r.Host.Side),
	}
	if j := r.Joiner; j != nil {
		side := string(j.Side)
		value := j.TotalValue
		rec.JoinerUserID = &j.UserID
		rec.JoinerDisplayName = &j.DisplayName
		rec.JoinerItems = pq.StringArray(nonNil(j.Items))
		rec.JoinerTotalValue = &value
		rec.JoinerSide = &side
	}
	if res := r.Result; res != nil {
		outcome := string(res.Outcome)
		finished := res.FinishedAt
		rec.Outcome = &outcome
		rec.WinnerUserID = &res.WinnerUserID
		rec.LoserUserID = &res.LoserUserID
		rec.TransferredItems = pq.StringArray(nonNil(res.TransferredItems))
		rec.FinishedAt = &finished
	}
	return rec
}

func (rec *roomRecord) toModel() *models.Room {
	room := &models.Room{
		ID:        rec.RoomID,
		CreatedAt: rec.CreatedAt,
		Status:    models.RoomStatus(rec.Status),
		Host: models.Stake{
			UserID:      rec.HostUserID,
			DisplayName: rec.HostDisplayName,
			Items:       nonNil(rec.HostItems),
			TotalValue:  rec.HostTotalValue,
			Side:        models.ParseSide(rec.HostSide),
		},
	}
	if rec.JoinerUserID != nil {
		j := &models.Stake{
			UserID: *rec.JoinerUserID,
			Items:  nonNil(rec.JoinerItems),
		}
		if rec.JoinerDisplayName != nil {
			j.DisplayName = *rec.JoinerDisplayName
		}
		if rec.JoinerTotalValue != nil {
			j.TotalValue = *rec.JoinerTotalValue
		}
		if rec.JoinerSide != nil {
			j.Side = models.ParseSide(*rec.JoinerSide)
		}
		room.Joiner = j
	}
	if rec.Outcome != nil {
		res := &models.Outcome{
			Outcome:          models.ParseSide(*rec.Outcome),
			TransferredItems: nonNil(rec.TransferredItems),
		}
		if rec.WinnerUserID != nil {
			res.WinnerUserID = *rec.WinnerUserID
		}
		if rec.LoserUserID != nil {
			res.LoserUserID = *rec.LoserUserID
		}
		if rec.FinishedAt != nil {
			res.FinishedAt = *rec.FinishedAt
		}
		room.Result = res
	}
	return room
}

// columns lists everything a transition may change.
func (rec *roomRecord) columns() map[string]interface{} {
	return map[string]interface{}{
		"status":              rec.Status,
		"joiner_user_id":      rec.JoinerUserID,
		"joiner_display_name": rec.JoinerDisplayName,
		"joiner_items":        rec.JoinerItems,
		"joiner_total_value":  rec.JoinerTotalValue,
		"joiner_side":         rec.JoinerSide,
		"outcome":             rec.Outcome,
		"winner_user_id":      rec.WinnerUserID,
		"loser_user_id":       rec.LoserUserID,
		"transferred_items":   rec.TransferredItems,
		"finished_at":         rec.FinishedAt,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}

// PostgresStore persists rooms with GORM.
type PostgresStore struct {
	DB *gorm.DB
}

// OpenPostgres connects to PostgreSQL.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Migrate creates or updates the rooms table.
func (s *PostgresStore) Migrate() error {
	if err := s.DB.AutoMigrate(&roomRecord{}); err != nil {
		return fmt.Errorf("migrate rooms: %w", err)
	}
	return nil
}

// SaveRoom inserts a new room.
func (s *PostgresStore) SaveRoom(ctx context.Context, room *models.Room) error {
	rec := toRecord(room)
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoomExists
		}
		logrus.WithError(err).WithField("room_id", room.ID).Error("Failed to save room")
		return err
	}
	return nil
}

// GetRoomByID loads one room.
func (s *PostgresStore) GetRoomByID(ctx context.Context, roomID string) (*models.Room, error) {
	var rec roomRecord
	err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to get room")
		return nil, err
	}
	return rec.toModel(), nil
}

// ListOpenRooms returns open rooms, oldest first.
func (s *PostgresStore) ListOpenRooms(ctx context.Context) ([]models.Room, error) {
	return s.ListRooms(ctx, models.RoomStatusOpen)
}

// ListRooms returns rooms in the given status, or all rooms for an empty status.
func (s *PostgresStore) ListRooms(ctx context.Context, status models.RoomStatus) ([]models.Room, error) {
	var recs []roomRecord
	q := s.DB.WithContext(ctx).Order("created_at asc").Order("room_id asc")
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.Find(&recs).Error; err != nil {
		logrus.WithError(err).WithField("status", status).Error("Failed to list rooms")
		return nil, err
	}
	rooms := make([]models.Room, 0, len(recs))
	for i := range recs {
		rooms = append(rooms, *recs[i].toModel())
	}
	return rooms, nil
}

// CountRooms returns the total number of rooms.
func (s *PostgresStore) CountRooms(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&roomRecord{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateRoomIf reads the room, applies mutate to a copy and writes it back with
// a conditional UPDATE on the expected status. If another writer moved the room
// first, zero rows match and the caller gets a StatusMismatchError.
func (s *PostgresStore) UpdateRoomIf(ctx context.Context, roomID string, expected models.RoomStatus, mutate MutateFunc) (*models.Room, error) {
	current, err := s.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if current.Status != expected {
		return nil, &StatusMismatchError{Expected: expected, Actual: current.Status}
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := checkTransition(current, next); err != nil {
		return nil, err
	}

	rec := toRecord(next)
	res := s.DB.WithContext(ctx).
		Model(&roomRecord{}).
		Where("room_id = ? AND status = ?", roomID, string(expected)).
		Updates(rec.columns())
	if res.Error != nil {
		logrus.WithError(res.Error).WithField("room_id", roomID).Error("Failed to update room")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		latest, err := s.GetRoomByID(ctx, roomID)
		if err != nil {
			return nil, err
		}
		return nil, &StatusMismatchError{Expected: expected, Actual: latest.Status}
	}
	return next, nil
}
