package automation

import (
	"time"

	"github.com/autoed/companion/pkg/core"
)

// FocusProbe reports whether the game window currently holds input focus.
type FocusProbe interface {
	Focused() bool
}

// FocusGate opens once focus has been held for longer than the settle delay.
type FocusGate struct {
	focusedAt time.Time
}

// Ready records the focus observation at now and reports whether actions may be sent.
func (g *FocusGate) Ready(focused bool, now time.Time, settle time.Duration) bool {
	if !focused {
		g.focusedAt = time.Time{}
		return false
	}
	if g.focusedAt.IsZero() {
		g.focusedAt = now
	}
	return now.Sub(g.focusedAt) > settle
}

// Runner owns the session state and processes each snapshot at most once.
// It is not safe for concurrent use; the ingestion loop is its only caller.
type Runner struct {
	focus   FocusProbe
	gate    FocusGate
	state   SessionState
	current *core.Snapshot
}

// NewRunner creates a runner gated by the given focus probe.
func NewRunner(focus FocusProbe) *Runner {
	return &Runner{focus: focus}
}

// Offer hands a newly decoded snapshot to the runner.
func (r *Runner) Offer(snap core.Snapshot) {
	r.current = &snap
	r.state = Observe(snap, r.state)
}

// Update is called on every frame tick. It processes the pending snapshot
// if the window is focused and settled, automation is active and the
// snapshot was not processed yet.
func (r *Runner) Update(now time.Time, cfg Config) []core.Action {
	if !r.gate.Ready(r.focus.Focused(), now, cfg.FocusSettleDelay) {
		return nil
	}
	if !cfg.Active || r.current == nil || r.state.Processed {
		return nil
	}

	fired, state := Process(*r.current, r.state, cfg)
	r.state = state
	return fired
}

// State returns a copy of the session state.
func (r *Runner) State() SessionState {
	return r.state
}
