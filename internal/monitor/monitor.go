// Package monitor periodically writes a plain-text status report for
// overlays and records performance counters.
package monitor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/autoed/companion/internal/automation"
	"github.com/autoed/companion/internal/cache"
	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/model"
	"github.com/autoed/companion/internal/navigation"
	"github.com/autoed/companion/internal/session"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/internal/watcher"
	"github.com/autoed/companion/internal/worker"
)

const defaultInterval = time.Second

// WatcherStats is satisfied by *watcher.Watcher.
type WatcherStats interface {
	Stats() watcher.Stats
}

// WorkerStats is satisfied by *worker.Manager.
type WorkerStats interface {
	Stats() worker.Stats
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session *session.Context
	Cache   *cache.WaypointCache
	Watcher WatcherStats
	Worker  WorkerStats
	Backend storage.Backend
	Logger  *slog.Logger

	StatusFile string
	Interval   time.Duration

	// Settings returns the live settings; defaults to config.Current.
	Settings func() config.Live
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = defaultInterval
	}
	if deps.Settings == nil {
		deps.Settings = config.Current
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Report renders the current state as report lines.
func (s *Service) Report() []string {
	settings := s.deps.Settings()
	state, ok := s.deps.Session.Current()

	lines := []string{automationLine(settings.Automation)}
	if !ok {
		return append(lines, "Status: [No Reading]")
	}

	snap := state.Snapshot
	if pos, has := snap.Location(); has {
		lines = append(lines,
			fmt.Sprintf("Body: %s", snap.BodyName),
			fmt.Sprintf("Current position: %.4f, %.4f", pos.Latitude, pos.Longitude),
			fmt.Sprintf("Altitude: %s", navigation.FormatDistance(snap.Altitude)),
		)
	} else {
		lines = append(lines, "Current position: [No Reading]")
	}

	if state.VelocityOK {
		lines = append(lines, fmt.Sprintf("Velocity: %.1f m/s", state.Velocity))
	} else {
		lines = append(lines, "Velocity: N/A")
	}

	if s.deps.Cache != nil {
		nav := navigation.Compute(s.deps.Cache.Selected(), snap, state.Velocity, state.VelocityOK)
		text := navigation.Format(nav)
		lines = append(lines,
			"Target: "+text.Target,
			"Bearing: "+text.Bearing,
			"Distance: "+text.Distance,
		)
	}
	return lines
}

func automationLine(cfg automation.Config) string {
	if !cfg.Active {
		return "Automation: off"
	}
	var on []string
	for _, r := range []struct {
		name    string
		enabled bool
	}{
		{"flight assist", cfg.AutoFlightAssist},
		{"drive assist", cfg.AutoDriveAssist},
		{"gear", cfg.AutoGear},
		{"lights", cfg.AutoLights},
		{"night vision", cfg.AutoNightVision},
	} {
		if r.enabled {
			on = append(on, r.name)
		}
	}
	if len(on) == 0 {
		return "Automation: on (no rules enabled)"
	}
	return "Automation: on (" + strings.Join(on, ", ") + ")"
}

// Performance samples the ingestion counters.
func (s *Service) Performance(now time.Time) model.Performance {
	perf := model.Performance{Time: now}
	if sess := s.deps.Session.GetSession(); sess != nil {
		perf.SessionID = sess.ID
	}
	if s.deps.Watcher != nil {
		ws := s.deps.Watcher.Stats()
		perf.Delivered = ws.Delivered
		perf.EmptyReads = ws.Empty
		perf.Duplicates = ws.Duplicates
		perf.ReadErrors = ws.ReadErrors
	}
	if s.deps.Worker != nil {
		st := s.deps.Worker.Stats()
		perf.Decoded = st.Payloads - st.DecodeErrors
		perf.DecodeErrors = st.DecodeErrors
	}
	if q, ok := s.deps.Backend.(storage.QueueReporter); ok {
		perf.QueueLength, perf.QueueDropped = q.QueueStats()
	}
	return perf
}

// Tick writes the report and records a performance sample.
func (s *Service) Tick(now time.Time) {
	if s.deps.StatusFile != "" {
		if err := writeReport(s.deps.StatusFile, s.Report()); err != nil {
			s.deps.Logger.Error("Error writing status file", "error", err)
		}
	}

	pr, ok := s.deps.Backend.(storage.PerformanceRecorder)
	if !ok {
		return
	}
	perf := s.Performance(now)
	if perf.SessionID == 0 {
		return
	}
	if err := pr.RecordPerformance(perf); err != nil {
		s.deps.Logger.Error("Error recording performance", "error", err)
	}
}

func writeReport(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(done)
		}()

		s.deps.Logger.Debug("Starting status monitor", "interval", s.deps.Interval, "statusFile", s.deps.StatusFile)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				s.Tick(now)
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.isRunning = false
	done := s.done
	s.mu.Unlock()
	<-done
}
