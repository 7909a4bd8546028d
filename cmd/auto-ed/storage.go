package main

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/model"
	"github.com/autoed/companion/internal/session"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/internal/storage/memory"
	sqlitestorage "github.com/autoed/companion/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "sqlite":
		Logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return sqlitestorage.New(storageCfg.SQLite, ZeroLogger, Logger), nil

	case "", "memory":
		Logger.Info("Memory storage backend initialized", "waypointFile", storageCfg.Memory.WaypointFile)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// initStorage creates and initializes the configured backend.
func initStorage() (storage.Backend, error) {
	backend, err := createStorageBackend(config.GetStorageConfig())
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return nil, err
	}
	return backend, nil
}

// startSession opens a recording session and publishes it to sess.
func startSession(backend storage.Backend, sess *session.Context) error {
	host, _ := os.Hostname()
	info := storage.SessionInfo{
		StartedAt:  SessionStartTime,
		StatusFile: config.StatusFilePath(),
		Version:    CurrentVersion,
		Host:       host,
	}
	id, err := backend.StartSession(info)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	sess.SetSession(&model.Session{
		Model:      gorm.Model{ID: id},
		StartedAt:  info.StartedAt,
		StatusFile: info.StatusFile,
		Version:    info.Version,
		Host:       info.Host,
	})
	Logger.Info("Session started", "sessionId", id, "statusFile", info.StatusFile)
	return nil
}
