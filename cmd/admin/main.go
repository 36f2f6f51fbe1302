package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"coinflip/backend/internal/auth"
	"coinflip/backend/internal/config"
	"coinflip/backend/internal/models"
	"coinflip/backend/internal/storage"

	"github.com/sirupsen/logrus"
)

const usage = `Usage: admin <command> [args]

  rooms [open|matched|finished]          list rooms, all statuses by default
  room <room_id>                         print one room as JSON
  issue-token <user_id> <name> [hours]   sign a bearer token (default 7 days)`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	ctx := context.Background()

	switch os.Args[1] {
	case "rooms":
		var status models.RoomStatus
		if len(os.Args) > 2 {
			status = models.RoomStatus(os.Args[2])
			if !status.IsValid() {
				fmt.Println("Status must be open, matched or finished.")
				os.Exit(1)
			}
		}
		if err := listRooms(ctx, openStore(cfg), status); err != nil {
			logrus.WithError(err).Fatal("Error listing rooms")
		}
	case "room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin room <room_id>")
			os.Exit(1)
		}
		if err := showRoom(ctx, openStore(cfg), os.Args[2]); err != nil {
			logrus.WithError(err).Fatal("Error loading room")
		}
	case "issue-token":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin issue-token <user_id> <name> [ttl_hours]")
			os.Exit(1)
		}
		var ttl time.Duration
		if len(os.Args) > 4 {
			hours, err := strconv.Atoi(os.Args[4])
			if err != nil || hours <= 0 {
				fmt.Println("Invalid ttl. Please provide a positive integer number of hours.")
				os.Exit(1)
			}
			ttl = time.Duration(hours) * time.Hour
		}
		token, err := auth.IssueToken(cfg.JWTSecret, auth.Claims{RobloxID: os.Args[2], RobloxName: os.Args[3]}, ttl)
		if err != nil {
			logrus.WithError(err).Fatal("Error signing token")
		}
		fmt.Println(token)
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

// openStore connects to the configured database. The memory driver has nothing to inspect.
func openStore(cfg *config.Config) storage.Storage {
	if cfg.StorageDriver != config.StoragePostgres {
		logrus.Fatal("Room commands need STORAGE_DRIVER=postgres and DATABASE_DSN")
	}
	db, err := storage.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect database")
	}
	return storage.NewPostgresStore(db)
}

func listRooms(ctx context.Context, s storage.Storage, status models.RoomStatus) error {
	rooms, err := s.ListRooms(ctx, status)
	if err != nil {
		return err
	}
	for _, r := range rooms {
		line := fmt.Sprintf("%s  %-8s  %s  host=%s (%.2f)", r.ID, r.Status, r.CreatedAt.Format(time.RFC3339), r.Host.UserID, r.Host.TotalValue)
		if r.Joiner != nil {
			line += fmt.Sprintf("  joiner=%s (%.2f)", r.Joiner.UserID, r.Joiner.TotalValue)
		}
		if r.Result != nil {
			line += fmt.Sprintf("  %s won", r.Result.WinnerUserID)
		}
		fmt.Println(line)
	}
	fmt.Printf("%d room(s)\n", len(rooms))
	return nil
}

func showRoom(ctx context.Context, s storage.Storage, roomID string) error {
	room, err := s.GetRoomByID(ctx, roomID)
	if errors.Is(err, storage.ErrRoomNotFound) {
		return fmt.Errorf("room %s not found", roomID)
	}
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(room, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
