// Package automation decides which corrective actions fire for a snapshot.
package automation

import (
	"time"

	"github.com/autoed/companion/pkg/core"
)

// DefaultFocusSettleDelay is how long the game window must hold focus before
// any action is sent; the game drops inputs sent right after refocus.
const DefaultFocusSettleDelay = 50 * time.Millisecond

// Config selects which rules are evaluated.
type Config struct {
	Active           bool
	AutoFlightAssist bool
	AutoDriveAssist  bool
	AutoGear         bool
	AutoLights       bool
	AutoNightVision  bool
	FocusSettleDelay time.Duration
}

// DefaultConfig mirrors the configuration defaults.
func DefaultConfig() Config {
	return Config{
		Active:           true,
		AutoFlightAssist: true,
		AutoDriveAssist:  true,
		AutoGear:         true,
		FocusSettleDelay: DefaultFocusSettleDelay,
	}
}

// SessionState is the small amount of memory kept between snapshots.
type SessionState struct {
	// WasDockedOrLanded latches on any docked/landed snapshot and is only
	// cleared by the gear rule firing. Disabling the gear rule leaves it set.
	WasDockedOrLanded bool
	// Processed is true once the current snapshot went through Process.
	Processed bool
}

// Observe folds a newly decoded snapshot into the session state.
// It runs once per snapshot, whether or not the snapshot is later processed.
func Observe(snap core.Snapshot, state SessionState) SessionState {
	state.WasDockedOrLanded = state.WasDockedOrLanded || snap.DockedOrLanded
	state.Processed = false
	return state
}

type rule struct {
	action  core.Action
	enabled func(Config) bool
	check   func(core.Snapshot, *SessionState) bool
}

// rules are evaluated in this order; only the gear rule touches state.
var rules = []rule{
	{
		action:  core.ActionFlightAssistToggle,
		enabled: func(c Config) bool { return c.AutoFlightAssist },
		check: func(s core.Snapshot, _ *SessionState) bool {
			if s.InSrv || s.DockedOrLanded || s.FsdActive {
				return false
			}
			return s.FlightAssistOn
		},
	},
	{
		action:  core.ActionDriveAssistToggle,
		enabled: func(c Config) bool { return c.AutoDriveAssist },
		check: func(s core.Snapshot, _ *SessionState) bool {
			return s.InSrv && s.DriveAssistOn
		},
	},
	{
		action:  core.ActionGearToggle,
		enabled: func(c Config) bool { return c.AutoGear },
		check: func(s core.Snapshot, st *SessionState) bool {
			if !s.GearDown {
				return false
			}
			if st.WasDockedOrLanded && !s.DockedOrLanded {
				st.WasDockedOrLanded = false
				return true
			}
			return false
		},
	},
	{
		action:  core.ActionLightsToggle,
		enabled: func(c Config) bool { return c.AutoLights },
		check: func(s core.Snapshot, _ *SessionState) bool {
			return !s.LightsOn && !s.FsdActive
		},
	},
	{
		action:  core.ActionNightVisionToggle,
		enabled: func(c Config) bool { return c.AutoNightVision },
		check: func(s core.Snapshot, _ *SessionState) bool {
			return !s.NightVisionOn && !s.FsdActive
		},
	},
}

// Process evaluates every enabled rule against the snapshot and returns the
// fired actions in rule order together with the updated state.
// It does not look at cfg.Active or the focus gate; Runner does.
func Process(snap core.Snapshot, state SessionState, cfg Config) ([]core.Action, SessionState) {
	state.WasDockedOrLanded = state.WasDockedOrLanded || snap.DockedOrLanded

	var fired []core.Action
	for _, r := range rules {
		if !r.enabled(cfg) {
			continue
		}
		if r.check(snap, &state) {
			fired = append(fired, r.action)
		}
	}
	state.Processed = true
	return fired, state
}
