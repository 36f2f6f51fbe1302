package storage_test

import (
	"coinflip/backend/internal/models"
	"coinflip/backend/internal/storage"
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenRoom(hostID string, created time.Time) *models.Room {
	return models.NewRoom(models.Stake{UserID: hostID, DisplayName: hostID, Items: []string{"item-" + hostID}, TotalValue: 100}, created)
}

func joinMutation(joinerID string) storage.MutateFunc {
	return func(r *models.Room) error {
		r.Joiner = &models.Stake{UserID: joinerID, Items: []string{"j"}, TotalValue: 100}
		r.Status = models.RoomStatusMatched
		return nil
	}
}

// storeFactories returns the stores the contract runs against.
// PostgreSQL joins only when COINFLIP_TEST_POSTGRES_DSN points at a disposable database.
func storeFactories(t *testing.T) map[string]func(t *testing.T) storage.Storage {
	factories := map[string]func(t *testing.T) storage.Storage{
		"memory": func(t *testing.T) storage.Storage { return storage.NewMemoryStore() },
	}
	if dsn := os.Getenv("COINFLIP_TEST_POSTGRES_DSN"); dsn != "" {
		factories["postgres"] = func(t *testing.T) storage.Storage {
			db, err := storage.OpenPostgres(dsn)
			require.NoError(t, err)
			s := storage.NewPostgresStore(db)
			require.NoError(t, s.Migrate())
			require.NoError(t, db.Exec("TRUNCATE coinflip_rooms").Error)
			return s
		}
	}
	return factories
}

func TestStorage_SaveAndGet(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			room := newOpenRoom("host", time.Now().UTC().Truncate(time.Millisecond))

			require.NoError(t, s.SaveRoom(ctx, room))

			got, err := s.GetRoomByID(ctx, room.ID)
			require.NoError(t, err)
			assert.Equal(t, room.ID, got.ID)
			assert.Equal(t, models.RoomStatusOpen, got.Status)
			assert.Equal(t, []string{"item-host"}, got.Host.Items)
			assert.Nil(t, got.Joiner)
			assert.Nil(t, got.Result)

			assert.ErrorIs(t, s.SaveRoom(ctx, room), storage.ErrRoomExists)

			_, err = s.GetRoomByID(ctx, "00000000-0000-0000-0000-000000000000")
			assert.ErrorIs(t, err, storage.ErrRoomNotFound)
		})
	}
}

func TestStorage_ListOpenRooms(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Millisecond)

			older := newOpenRoom("a", base)
			newer := newOpenRoom("b", base.Add(time.Second))
			matched := newOpenRoom("c", base.Add(2*time.Second))
			require.NoError(t, s.SaveRoom(ctx, newer))
			require.NoError(t, s.SaveRoom(ctx, older))
			require.NoError(t, s.SaveRoom(ctx, matched))
			_, err := s.UpdateRoomIf(ctx, matched.ID, models.RoomStatusOpen, joinMutation("d"))
			require.NoError(t, err)

			open, err := s.ListOpenRooms(ctx)
			require.NoError(t, err)
			require.Len(t, open, 2)
			assert.Equal(t, older.ID, open[0].ID, "oldest room first")
			assert.Equal(t, newer.ID, open[1].ID)

			all, err := s.ListRooms(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			onlyMatched, err := s.ListRooms(ctx, models.RoomStatusMatched)
			require.NoError(t, err)
			require.Len(t, onlyMatched, 1)
			assert.Equal(t, matched.ID, onlyMatched[0].ID)

			n, err := s.CountRooms(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)
		})
	}
}

func TestStorage_UpdateRoomIf(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			room := newOpenRoom("host", time.Now().UTC())
			require.NoError(t, s.SaveRoom(ctx, room))

			updated, err := s.UpdateRoomIf(ctx, room.ID, models.RoomStatusOpen, joinMutation("joiner"))
			require.NoError(t, err)
			assert.Equal(t, models.RoomStatusMatched, updated.Status)
			require.NotNil(t, updated.Joiner)
			assert.Equal(t, "joiner", updated.Joiner.UserID)

			// Stale expectation.
			_, err = s.UpdateRoomIf(ctx, room.ID, models.RoomStatusOpen, joinMutation("late"))
			var mismatch *storage.StatusMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.ErrorIs(t, err, storage.ErrStatusMismatch)
			assert.Equal(t, models.RoomStatusMatched, mismatch.Actual)
			assert.Equal(t, models.RoomStatusOpen, mismatch.Expected)

			// Missing room.
			_, err = s.UpdateRoomIf(ctx, "00000000-0000-0000-0000-000000000001", models.RoomStatusOpen, joinMutation("x"))
			assert.ErrorIs(t, err, storage.ErrRoomNotFound)
		})
	}
}

func TestStorage_UpdateRoomIf_MutateErrorLeavesRoomUntouched(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			room := newOpenRoom("host", time.Now().UTC())
			require.NoError(t, s.SaveRoom(ctx, room))
			boom := errors.New("rejected")

			_, err := s.UpdateRoomIf(ctx, room.ID, models.RoomStatusOpen, func(r *models.Room) error {
				r.Status = models.RoomStatusMatched
				r.Host.Items[0] = "tampered"
				return boom
			})
			assert.ErrorIs(t, err, boom)

			got, err := s.GetRoomByID(ctx, room.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RoomStatusOpen, got.Status)
			assert.Equal(t, "item-host", got.Host.Items[0])
		})
	}
}

func TestStorage_UpdateRoomIf_RejectsBackwardTransition(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			room := newOpenRoom("host", time.Now().UTC())
			require.NoError(t, s.SaveRoom(ctx, room))
			_, err := s.UpdateRoomIf(ctx, room.ID, models.RoomStatusOpen, joinMutation("joiner"))
			require.NoError(t, err)

			_, err = s.UpdateRoomIf(ctx, room.ID, models.RoomStatusMatched, func(r *models.Room) error {
				r.Status = models.RoomStatusOpen
				return nil
			})
			assert.ErrorIs(t, err, storage.ErrInvalidTransition)

			got, err := s.GetRoomByID(ctx, room.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RoomStatusMatched, got.Status)
		})
	}
}

// TestStorage_ConcurrentTransition checks that only one of many racing writers wins.
func TestStorage_ConcurrentTransition(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			room := newOpenRoom("host", time.Now().UTC())
			require.NoError(t, s.SaveRoom(ctx, room))

			const writers = 16
			var wins, mismatches atomic.Int32
			var wg sync.WaitGroup
			start := make(chan struct{})
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					_, err := s.UpdateRoomIf(ctx, room.ID, models.RoomStatusOpen, joinMutation("joiner"))
					switch {
					case err == nil:
						wins.Add(1)
					case errors.Is(err, storage.ErrStatusMismatch):
						mismatches.Add(1)
					}
				}(i)
			}
			close(start)
			wg.Wait()

			assert.Equal(t, int32(1), wins.Load())
			assert.Equal(t, int32(writers-1), mismatches.Load())
		})
	}
}

// TestMemoryStore_ReturnsCopies ensures callers can't reach stored state.
func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := storage.NewMemoryStore()
	ctx := context.Background()
	room := newOpenRoom("host", time.Now())
	require.NoError(t, s.SaveRoom(ctx, room))

	room.Host.Items[0] = "after-save"
	got, err := s.GetRoomByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "item-host", got.Host.Items[0])

	got.Host.Items[0] = "after-get"
	again, err := s.GetRoomByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "item-host", again.Host.Items[0])
}

// TestMemoryStore_RoomsDoNotContend holds one room's lock and checks another room still moves.
func TestMemoryStore_RoomsDoNotContend(t *testing.T) {
	s := storage.NewMemoryStore()
	ctx := context.Background()
	a := newOpenRoom("a", time.Now())
	b := newOpenRoom("b", time.Now())
	require.NoError(t, s.SaveRoom(ctx, a))
	require.NoError(t, s.SaveRoom(ctx, b))

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.UpdateRoomIf(ctx, a.ID, models.RoomStatusOpen, func(r *models.Room) error {
			close(entered)
			<-release
			return joinMutation("ja")(r)
		})
	}()
	<-entered

	finished := make(chan error, 1)
	go func() {
		_, err := s.UpdateRoomIf(ctx, b.ID, models.RoomStatusOpen, joinMutation("jb"))
		finished <- err
	}()

	select {
	case err := <-finished:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("update on room b blocked behind room a")
	}
	close(release)
	<-done
}
