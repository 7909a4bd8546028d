package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autoed/companion/internal/actuator"
	"github.com/autoed/companion/internal/automation"
	"github.com/autoed/companion/internal/cache"
	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/dispatcher"
	"github.com/autoed/companion/internal/focus"
	"github.com/autoed/companion/internal/handlers"
	"github.com/autoed/companion/internal/influx"
	"github.com/autoed/companion/internal/logging"
	"github.com/autoed/companion/internal/monitor"
	"github.com/autoed/companion/internal/parser"
	"github.com/autoed/companion/internal/session"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/internal/watcher"
	"github.com/autoed/companion/internal/worker"
)

const (
	defaultFrameInterval = 16 * time.Millisecond
	actionBuffer         = 16
)

// runDaemon watches the status file and reacts until ctx is cancelled.
func runDaemon(ctx context.Context) error {
	sess := session.NewContext()
	closeLogs, err := initLogging(true, logging.SessionProvider(sess))
	defer closeLogs()
	if err != nil {
		return err
	}
	Logger.Info("Starting up...", "version", CurrentVersion, "buildDate", BuildDate)

	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}()
	if err := startSession(backend, sess); err != nil {
		return err
	}

	waypointCache := cache.NewWaypointCache()
	handlerService := handlers.NewService(handlers.Dependencies{
		Cache:      waypointCache,
		Store:      backend,
		Session:    sess,
		Logger:     Logger.With("component", "handlers"),
		SaveTarget: config.SetTarget,
	})

	live := config.Refresh(Logger)
	if err := handlerService.Load(live.Navigation.Target); err != nil && !errors.Is(err, storage.ErrCorruptWaypoints) {
		return err
	}
	config.Watch(Logger, func(l config.Live) {
		if err := handlerService.Load(l.Navigation.Target); err != nil {
			Logger.Warn("Failed to reload waypoints after config change", "error", err)
		}
	})

	telemetry, closeTelemetry := initTelemetry(ctx)
	defer closeTelemetry()

	probe, err := focus.New(config.GetFocusConfig(), Logger.With("component", "focus"))
	if err != nil {
		return err
	}
	stopFocus := focus.Start(ctx, probe)
	defer stopFocus()
	act, err := actuator.New(config.GetActuatorConfig(), Logger.With("component", "actuator"))
	if err != nil {
		return err
	}

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(ZeroLogger.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	actuator.RegisterActions(eventDispatcher, act, dispatcher.Buffered(actionBuffer), dispatcher.Logged())
	defer eventDispatcher.Close()

	wcfg := config.GetWatcherConfig()
	statusWatcher := watcher.New(config.GetString("journalDir"), config.GetString("statusFile"), watcher.Options{
		IgnoreEmpty:     wcfg.IgnoreEmptyFileReads,
		IgnoreDuplicate: wcfg.IgnoreDuplicateReads,
		Buffer:          wcfg.Buffer,
	}, Logger.With("component", "watcher"))
	if err := statusWatcher.Start(ctx); err != nil {
		return fmt.Errorf("watching %s: %w", config.StatusFilePath(), err)
	}
	defer func() {
		if err := statusWatcher.Stop(); err != nil {
			Logger.Warn("Failed to stop watcher", "error", err)
		}
	}()

	workerManager := worker.NewManager(worker.Dependencies{
		Parser:     parser.NewParser(Logger.With("component", "parser")),
		Runner:     automation.NewRunner(probe),
		Session:    sess,
		Dispatcher: eventDispatcher,
		Logger:     Logger.With("component", "worker"),
		Recorder:   backend,
		Telemetry:  telemetry,
	})

	mcfg := config.GetMonitorConfig()
	monitorService := monitor.NewService(monitor.Dependencies{
		Session:    sess,
		Cache:      waypointCache,
		Watcher:    statusWatcher,
		Worker:     workerManager,
		Backend:    backend,
		Logger:     Logger.With("component", "monitor"),
		StatusFile: mcfg.StatusFile,
		Interval:   mcfg.ReportInterval,
	})
	if err := monitorService.Start(); err != nil {
		return err
	}
	defer monitorService.Stop()

	frameInterval := mcfg.FrameInterval
	if frameInterval <= 0 {
		frameInterval = defaultFrameInterval
	}
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	Logger.Info("Watching status file", "path", statusWatcher.Path(), "frameInterval", frameInterval)
	workerManager.Run(ctx, statusWatcher.Payloads().Receive(), ticker.C)

	stats := workerManager.Stats()
	Logger.Info("Shutting down", "payloads", stats.Payloads, "actions", stats.Actions, "decodeErrors", stats.DecodeErrors)
	return nil
}

// initTelemetry connects the optional InfluxDB sink. A nil Telemetry is
// returned when it is disabled.
func initTelemetry(ctx context.Context) (worker.Telemetry, func()) {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil, func() {}
	}

	backupPath := logging.SessionFile(config.GetString("logsDir"), AppName, SessionStartTime, "influx.gz")
	im := influx.NewManager(cfg, ZeroLogger.With().Str("component", "influx").Logger(), backupPath)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := im.Connect(connectCtx); err != nil {
		Logger.Error("InfluxDB telemetry disabled", "error", err)
		_ = im.Close()
		return nil, func() {}
	}
	return im, func() {
		if err := im.Close(); err != nil {
			Logger.Warn("Failed to close InfluxDB telemetry", "error", err)
		}
	}
}
