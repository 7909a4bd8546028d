// Package worker runs the reactive loop. One goroutine owns the automation
// runner and the velocity tracker: payloads from the watcher and frame ticks
// are handled in turn, so no two snapshots are ever processed concurrently.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/autoed/companion/internal/automation"
	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/dispatcher"
	"github.com/autoed/companion/internal/parser"
	"github.com/autoed/companion/internal/session"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/internal/velocity"
	"github.com/autoed/companion/pkg/core"
)

const instrumentationName = "github.com/autoed/companion/internal/worker"

// ActionDispatcher delivers fired actions. *dispatcher.Dispatcher satisfies it.
type ActionDispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Telemetry is an optional sink for decoded snapshots and fired actions.
type Telemetry interface {
	WriteSnapshot(ctx context.Context, s core.Snapshot, velocity float64, velocityOK bool) error
	WriteAction(ctx context.Context, a core.Action, at time.Time) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Parser     *parser.Parser
	Runner     *automation.Runner
	Session    *session.Context
	Dispatcher ActionDispatcher
	Logger     *slog.Logger

	// Optional.
	Recorder  storage.Recorder
	Telemetry Telemetry

	// Settings returns the live settings; defaults to config.Current.
	Settings func() config.Live
}

// Stats are the loop's counters.
type Stats struct {
	Payloads       uint64
	DecodeErrors   uint64
	Frames         uint64
	Actions        uint64
	DispatchErrors uint64
	RecordErrors   uint64
}

// Manager runs the ingestion and frame loop.
type Manager struct {
	deps    Dependencies
	tracker velocity.Tracker

	payloads       atomic.Uint64
	decodeErrors   atomic.Uint64
	frames         atomic.Uint64
	actions        atomic.Uint64
	dispatchErrors atomic.Uint64
	recordErrors   atomic.Uint64

	decodedCounter metric.Int64Counter
	failedCounter  metric.Int64Counter
	actionCounter  metric.Int64Counter
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	if deps.Settings == nil {
		deps.Settings = config.Current
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	m := &Manager{deps: deps}

	meter := otel.Meter(instrumentationName)
	m.decodedCounter, _ = meter.Int64Counter("autoed.worker.snapshots.decoded",
		metric.WithDescription("Status payloads decoded into snapshots"))
	m.failedCounter, _ = meter.Int64Counter("autoed.worker.snapshots.failed",
		metric.WithDescription("Status payloads that failed to decode"))
	m.actionCounter, _ = meter.Int64Counter("autoed.worker.actions.fired",
		metric.WithDescription("Automation actions fired"))
	return m
}

// Run handles payloads and frame ticks until ctx is done or payloads is
// closed. A payload being handled when ctx ends is finished first.
func (m *Manager) Run(ctx context.Context, payloads <-chan core.Payload, frames <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-payloads:
			if !ok {
				m.deps.Logger.Debug("Payload channel closed, stopping worker")
				return
			}
			m.HandlePayload(ctx, p)
		case now := <-frames:
			m.Frame(ctx, now)
		}
	}
}

// HandlePayload decodes one read of the status file and publishes the
// result. A payload that fails to decode leaves the previous state in place.
func (m *Manager) HandlePayload(ctx context.Context, p core.Payload) {
	m.payloads.Add(1)

	snap, err := m.deps.Parser.ParseStatus(p)
	if err != nil {
		m.decodeErrors.Add(1)
		if m.failedCounter != nil {
			m.failedCounter.Add(ctx, 1)
		}
		m.deps.Logger.Warn("Failed to decode status payload",
			"error", err,
			"bytes", len(p.Data),
			"readAt", p.ReadAt,
		)
		return
	}
	if m.decodedCounter != nil {
		m.decodedCounter.Add(ctx, 1)
	}

	settings := m.deps.Settings()
	m.tracker.Update(snap, settings.Navigation.SmoothingWindowSeconds)
	avg, avgOK := m.tracker.Average()

	m.deps.Runner.Offer(snap)
	m.publish(snap, avg, avgOK, snap.Timestamp)

	if m.deps.Recorder != nil {
		if err := m.deps.Recorder.RecordSnapshot(snap, avg, avgOK); err != nil {
			m.recordErrors.Add(1)
			m.deps.Logger.Debug("Failed to record snapshot", "error", err)
		}
	}
	if m.deps.Telemetry != nil {
		if err := m.deps.Telemetry.WriteSnapshot(ctx, snap, avg, avgOK); err != nil {
			m.deps.Logger.Debug("Failed to write snapshot telemetry", "error", err)
		}
	}
}

// Frame runs the automation rules for the pending snapshot, if any, and
// dispatches the actions that fire.
func (m *Manager) Frame(ctx context.Context, now time.Time) []core.Action {
	m.frames.Add(1)

	before := m.deps.Runner.State()
	fired := m.deps.Runner.Update(now, m.deps.Settings().Automation)
	if m.deps.Runner.State() == before {
		return nil
	}

	state, _ := m.deps.Session.Current()
	snap := state.Snapshot
	m.publish(snap, state.Velocity, state.VelocityOK, state.Updated)

	for _, a := range fired {
		m.actions.Add(1)
		if m.actionCounter != nil {
			m.actionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(a))))
		}
		m.deps.Logger.Info("Firing action", "action", string(a), "binding", a.Label())

		if _, err := m.deps.Dispatcher.Dispatch(dispatcher.Event{Command: string(a), Timestamp: now}); err != nil {
			m.dispatchErrors.Add(1)
			m.deps.Logger.Error("Failed to dispatch action", "action", string(a), "error", err)
		}
		if m.deps.Recorder != nil {
			if err := m.deps.Recorder.RecordAction(a, snap, now); err != nil {
				m.recordErrors.Add(1)
				m.deps.Logger.Debug("Failed to record action", "error", err)
			}
		}
		if m.deps.Telemetry != nil {
			if err := m.deps.Telemetry.WriteAction(ctx, a, now); err != nil {
				m.deps.Logger.Debug("Failed to write action telemetry", "error", err)
			}
		}
	}
	return fired
}

func (m *Manager) publish(snap core.Snapshot, avg float64, avgOK bool, updated time.Time) {
	m.deps.Session.Publish(session.State{
		Snapshot:   snap,
		Automation: m.deps.Runner.State(),
		Velocity:   avg,
		VelocityOK: avgOK,
		Updated:    updated,
	})
}

// Stats returns a copy of the loop counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Payloads:       m.payloads.Load(),
		DecodeErrors:   m.decodeErrors.Load(),
		Frames:         m.frames.Load(),
		Actions:        m.actions.Load(),
		DispatchErrors: m.dispatchErrors.Load(),
		RecordErrors:   m.recordErrors.Load(),
	}
}
