package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoed/companion/internal/automation"
	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/dispatcher"
	"github.com/autoed/companion/internal/parser"
	"github.com/autoed/companion/internal/session"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/pkg/core"
)

type focusStub struct{ focused bool }

func (f focusStub) Focused() bool { return f.focused }

// mockDispatcher records dispatched events
type mockDispatcher struct {
	mu     sync.Mutex
	events []dispatcher.Event
	err    error
}

func (d *mockDispatcher) Dispatch(e dispatcher.Event) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil, d.err
}

func (d *mockDispatcher) commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.events))
	for i, e := range d.events {
		out[i] = e.Command
	}
	return out
}

// mockRecorder implements storage.Recorder for testing
type mockRecorder struct {
	mu        sync.Mutex
	snapshots []core.Snapshot
	actions   []core.Action
}

func (r *mockRecorder) StartSession(storage.SessionInfo) (uint, error) { return 1, nil }

func (r *mockRecorder) RecordSnapshot(s core.Snapshot, v float64, ok bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *mockRecorder) RecordAction(a core.Action, s core.Snapshot, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return nil
}

func (r *mockRecorder) Flush() error { return nil }

var _ storage.Recorder = (*mockRecorder)(nil)

type fixture struct {
	m          *Manager
	session    *session.Context
	dispatcher *mockDispatcher
	recorder   *mockRecorder
	start      time.Time
}

func newFixture(t *testing.T, cfg automation.Config) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		session:    session.NewContext(),
		dispatcher: &mockDispatcher{},
		recorder:   &mockRecorder{},
		start:      time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.m = NewManager(Dependencies{
		Parser:     parser.NewParser(logger),
		Runner:     automation.NewRunner(focusStub{focused: true}),
		Session:    f.session,
		Dispatcher: f.dispatcher,
		Recorder:   f.recorder,
		Logger:     logger,
		Settings: func() config.Live {
			return config.Live{
				Automation: cfg,
				Navigation: config.NavigationConfig{SmoothingWindowSeconds: 10},
			}
		},
	})
	// open the focus gate
	f.m.Frame(context.Background(), f.start)
	return f
}

func (f *fixture) payload(offset time.Duration, flags core.Flag) {
	f.m.HandlePayload(context.Background(), core.Payload{
		Data:   []byte(fmt.Sprintf(`{"Flags":%d}`, uint32(flags))),
		ReadAt: f.start.Add(offset),
	})
}

func (f *fixture) frame(offset time.Duration) []core.Action {
	return f.m.Frame(context.Background(), f.start.Add(offset))
}

func onlyGear() automation.Config {
	return automation.Config{Active: true, AutoGear: true, FocusSettleDelay: automation.DefaultFocusSettleDelay}
}

func TestHandlePayload_PublishesSnapshot(t *testing.T) {
	f := newFixture(t, automation.DefaultConfig())

	_, ok := f.session.Current()
	assert.False(t, ok)

	f.payload(0, core.FlagDocked|core.FlagGearDown)

	state, ok := f.session.Current()
	require.True(t, ok)
	assert.True(t, state.Snapshot.DockedOrLanded)
	assert.True(t, state.Automation.WasDockedOrLanded)
	assert.False(t, state.Automation.Processed)
	assert.Len(t, f.recorder.snapshots, 1)
}

func TestHandlePayload_DecodeErrorKeepsPreviousState(t *testing.T) {
	f := newFixture(t, automation.DefaultConfig())
	f.payload(0, core.FlagDocked)

	f.m.HandlePayload(context.Background(), core.Payload{Data: []byte(`{"Flags":`), ReadAt: f.start})
	f.m.HandlePayload(context.Background(), core.Payload{Data: []byte(`{"Event":"Status"}`), ReadAt: f.start})

	state, ok := f.session.Current()
	require.True(t, ok)
	assert.True(t, state.Snapshot.DockedOrLanded)

	stats := f.m.Stats()
	assert.Equal(t, uint64(3), stats.Payloads)
	assert.Equal(t, uint64(2), stats.DecodeErrors)
	assert.Len(t, f.recorder.snapshots, 1)
}

func TestFrame_GearRetractOnUndock(t *testing.T) {
	f := newFixture(t, onlyGear())

	f.payload(100*time.Millisecond, core.FlagDocked|core.FlagGearDown)
	assert.Empty(t, f.frame(100*time.Millisecond))

	f.payload(200*time.Millisecond, core.FlagGearDown)
	fired := f.frame(200 * time.Millisecond)
	assert.Equal(t, []core.Action{core.ActionGearToggle}, fired)

	// processed once
	assert.Empty(t, f.frame(300*time.Millisecond))

	// same state again: latch was cleared by firing
	f.payload(400*time.Millisecond, core.FlagGearDown)
	assert.Empty(t, f.frame(400*time.Millisecond))

	assert.Equal(t, []string{"gear-toggle"}, f.dispatcher.commands())
	assert.Equal(t, []core.Action{core.ActionGearToggle}, f.recorder.actions)

	state, _ := f.session.Current()
	assert.False(t, state.Automation.WasDockedOrLanded)
	assert.True(t, state.Automation.Processed)
	assert.Equal(t, uint64(1), f.m.Stats().Actions)
}

func TestFrame_RespectsFocusSettleDelay(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.NewContext()
	d := &mockDispatcher{}
	m := NewManager(Dependencies{
		Parser:     parser.NewParser(logger),
		Runner:     automation.NewRunner(focusStub{focused: true}),
		Session:    sess,
		Dispatcher: d,
		Logger:     logger,
		Settings: func() config.Live {
			return config.Live{Automation: automation.DefaultConfig()}
		},
	})
	start := time.Now()
	m.HandlePayload(context.Background(), core.Payload{Data: []byte(`{"Flags":0}`), ReadAt: start})

	assert.Empty(t, m.Frame(context.Background(), start))
	assert.Empty(t, m.Frame(context.Background(), start.Add(50*time.Millisecond)))
	assert.Equal(t, []core.Action{core.ActionFlightAssistToggle}, m.Frame(context.Background(), start.Add(51*time.Millisecond)))
}

func TestFrame_DispatchErrorIsCounted(t *testing.T) {
	f := newFixture(t, automation.DefaultConfig())
	f.dispatcher.err = errors.New("no actuator")

	f.payload(100*time.Millisecond, 0)
	fired := f.frame(100 * time.Millisecond)

	assert.Equal(t, []core.Action{core.ActionFlightAssistToggle}, fired)
	assert.Equal(t, uint64(1), f.m.Stats().DispatchErrors)
	assert.Len(t, f.recorder.actions, 1)
}

func TestHandlePayload_Velocity(t *testing.T) {
	f := newFixture(t, automation.Config{})
	positioned := func(offset time.Duration, lon float64) {
		f.m.HandlePayload(context.Background(), core.Payload{
			Data: []byte(fmt.Sprintf(
				`{"Flags":%d,"Latitude":0,"Longitude":%g,"Heading":90,"Altitude":0,"PlanetRadius":1000000,"BodyName":"Moon A"}`,
				uint32(core.FlagHasLatLong), lon)),
			ReadAt: f.start.Add(offset),
		})
	}

	positioned(0, 0)
	state, _ := f.session.Current()
	assert.False(t, state.VelocityOK)

	positioned(time.Second, 0.001)
	state, _ = f.session.Current()
	require.True(t, state.VelocityOK)
	// 0.001 degrees on a 1000 km sphere
	assert.InDelta(t, 17.453, state.Velocity, 0.01)

	f.payload(2*time.Second, 0)
	state, _ = f.session.Current()
	assert.False(t, state.VelocityOK, "lost position resets the average")
}

func TestRun_StopsOnClosedChannelAndContext(t *testing.T) {
	f := newFixture(t, onlyGear())

	payloads := make(chan core.Payload, 2)
	frames := make(chan time.Time)
	payloads <- core.Payload{Data: []byte(`{"Flags":1}`), ReadAt: f.start}
	close(payloads)

	done := make(chan struct{})
	go func() {
		f.m.Run(context.Background(), payloads, frames)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after payload channel closed")
	}
	state, ok := f.session.Current()
	require.True(t, ok)
	assert.True(t, state.Snapshot.DockedOrLanded)

	ctx, cancel := context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		f.m.Run(ctx, make(chan core.Payload), frames)
		close(done)
	}()
	frames <- f.start.Add(time.Second)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, f.m.Stats().Frames, uint64(2))
}
