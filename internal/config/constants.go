package config

import "time"

const (
	// Engine
	DefaultValueTolerance = 0.1

	// Transfer
	DefaultTransferTimeout = 5 * time.Second
	// TransferDispatchTimeout bounds the background goroutine even if a notifier ignores its own timeout.
	TransferDispatchTimeout = 30 * time.Second

	// Tokens
	DefaultTokenTTL = 7 * 24 * time.Hour
	TokenIssuer     = "coinflip-service"

	// Room feed
	FeedChannel        = "coinflip:rooms"
	FeedBufferSize     = 256
	FeedClientBuffer   = 64
	FeedWriteWait      = 10 * time.Second
	FeedPongWait       = 60 * time.Second
	FeedPingPeriod     = (FeedPongWait * 9) / 10
	FeedMaxMessageSize = 512

	// HTTP server
	ReadTimeout    = 10 * time.Second
	WriteTimeout   = 10 * time.Second
	MaxHeaderBytes = 1 << 20
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)
