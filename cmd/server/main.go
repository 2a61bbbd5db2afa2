package main

import (
	"context"
	"log"
	"time"

	"movie-roulette/internal/api"
	"movie-roulette/internal/changefeed"
	"movie-roulette/internal/config"
	"movie-roulette/internal/db"
	"movie-roulette/internal/kv"
	"movie-roulette/internal/overlay"
	"movie-roulette/internal/roulette"
	"movie-roulette/internal/session"
	"movie-roulette/internal/store"
	"movie-roulette/pkg/logger"
	"movie-roulette/pkg/tarantool"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	st, channel := buildBackends(cfg, zl)

	feed := changefeed.New()
	sessions := session.NewService(st, feed, zl)
	defer sessions.Close()
	if err := sessions.RestoreTimers(context.Background()); err != nil {
		zl.Warn("restore voting timers failed", zap.Error(err))
	}

	bridge := overlay.NewBridge(channel, zl)
	history := overlay.NewHistory(st, cfg.HistoryOwner, cfg.HistoryCapacity)
	spinner := roulette.NewSpinner(bridge, history, time.Duration(cfg.SpinDelaySeconds)*time.Second, zl)
	list := roulette.NewList()

	server := api.New(
		sessions, list, spinner, bridge, history, feed,
		time.Duration(cfg.OverlayPollMillis)*time.Millisecond, zl,
	)

	addr := ":" + cfg.Port
	zl.Info("movie-roulette server listening", zap.String("addr", addr))
	if err := server.Router().Run(addr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

// buildBackends picks the store and the shared KV channel. Without a
// DATABASE_URL everything runs in memory, which is enough for a single local
// surface but durable across nothing.
func buildBackends(cfg config.Config, zl *zap.Logger) (store.Store, kv.Channel) {
	if cfg.DatabaseURL == "" {
		zl.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), pickKV(cfg, nil, zl)
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	sqlDB, err := conn.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	}
	if err := db.Migrate(conn, zl); err != nil {
		zl.Fatal("migrate database", zap.Error(err))
	}
	return store.NewGorm(conn), pickKV(cfg, kv.NewGormChannel(conn), zl)
}

func pickKV(cfg config.Config, pgChannel kv.Channel, zl *zap.Logger) kv.Channel {
	switch cfg.KVBackend {
	case "tarantool":
		conn, err := tarantool.New(tarantool.Config{
			Host:     cfg.TarantoolHost,
			Port:     cfg.TarantoolPort,
			Username: cfg.TarantoolUser,
			Password: cfg.TarantoolPassword,
		})
		if err != nil {
			zl.Fatal("connect tarantool", zap.Error(err))
		}
		return kv.NewTarantoolChannel(conn)
	case "memory":
		return kv.NewMemoryChannel()
	default:
		if pgChannel == nil {
			zl.Warn("postgres KV backend unavailable, using in-memory channel")
			return kv.NewMemoryChannel()
		}
		return pgChannel
	}
}
