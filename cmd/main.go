package main

import (
	"coinflip/backend/internal/api/handler"
	"coinflip/backend/internal/auth"
	"coinflip/backend/internal/coinflip"
	"coinflip/backend/internal/config"
	"coinflip/backend/internal/logging"
	"coinflip/backend/internal/roomhub"
	"coinflip/backend/internal/storage"
	"coinflip/backend/internal/telegram"
	"coinflip/backend/internal/transfer"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func setupStorage(cfg *config.Config) storage.Storage {
	if cfg.StorageDriver != config.StoragePostgres {
		logrus.Info("Using in-memory room storage")
		return storage.NewMemoryStore()
	}

	db, err := storage.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect PostgreSQL")
	}
	store := storage.NewPostgresStore(db)
	if err := store.Migrate(); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}
	logrus.Info("PostgreSQL connected, migrations complete")
	return store
}

func setupNotifiers(cfg *config.Config) coinflip.Notifier {
	var fanout transfer.Fanout
	if cfg.TransferURL != "" {
		fanout = append(fanout, transfer.NewHTTPNotifier(cfg.TransferURL, cfg.TransferKey(), cfg.TransferTimeout))
		logrus.WithField("url", cfg.TransferURL).Info("Transfer notifier enabled")
	}
	if cfg.TelegramEnabled() {
		announcer, err := telegram.NewAnnouncer(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logrus.WithError(err).Error("Telegram announcer disabled")
		} else {
			fanout = append(fanout, announcer)
		}
	}
	if len(fanout) == 0 {
		return nil
	}
	return fanout
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logrus.Info("Starting coinflip backend...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := setupStorage(cfg)

	var relay roomhub.Relay
	if cfg.RedisEnabled() {
		redisRelay, err := roomhub.NewRedisRelay(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect Redis")
		}
		defer redisRelay.Close()
		relay = redisRelay
		logrus.WithField("addr", cfg.RedisAddr).Info("Room feed shared over Redis")
	}
	hub := roomhub.NewHub(relay)
	go hub.Run(ctx)

	svc := coinflip.NewService(store, coinflip.Rules{
		Tolerance:     cfg.ValueTolerance,
		AllowSelfJoin: cfg.AllowSelfJoin,
	})
	svc.SetEventPublisher(hub)
	if n := setupNotifiers(cfg); n != nil {
		svc.SetNotifier(n)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(svc, hub, auth.NewVerifier(cfg.JWTSecret, cfg.AuthKey()))

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler.NewRouter(h),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown")
	}
	svc.Wait()
	<-hub.Done()
	logrus.Info("Bye")
}
