// Package velocity estimates ground speed from consecutive positioned snapshots.
package velocity

import (
	"math"
	"time"

	"github.com/autoed/companion/internal/geo"
	"github.com/autoed/companion/pkg/core"
)

// MinWindowSeconds is the smallest accepted smoothing window.
const MinWindowSeconds = 1

// Sample is the latest positioned sample kept between updates.
type Sample struct {
	Position core.Position
	Time     time.Time
}

// Tracker holds the running estimate. The zero value is ready to use.
// The average only exists while an unbroken run of positioned snapshots does.
type Tracker struct {
	last    *Sample
	average *float64

	// Instant is the most recent instantaneous speed, for diagnostics.
	Instant float64
}

// Weight returns the smoothing weight for a sample dt seconds after the previous one.
// It is always in [0, 1].
func Weight(dt float64, windowSeconds int) float64 {
	if windowSeconds < MinWindowSeconds {
		windowSeconds = MinWindowSeconds
	}
	k := dt / float64(windowSeconds)
	return math.Max(math.Min(k, 1), 0)
}

// Update feeds one snapshot into the tracker.
// A snapshot without position resets all state.
func (t *Tracker) Update(snap core.Snapshot, windowSeconds int) {
	if !snap.HasPosition {
		t.Reset()
		return
	}
	t.Observe(snap.Position, snap.ShellRadius(), snap.Timestamp, windowSeconds)
}

// Observe feeds one positioned sample measured on a sphere of the given radius.
func (t *Tracker) Observe(p core.Position, radius float64, at time.Time, windowSeconds int) {
	prev := t.last
	t.last = &Sample{Position: p, Time: at}
	if prev == nil {
		return
	}

	dt := at.Sub(prev.Time).Seconds()
	if dt <= 0 {
		// no elapsed time, nothing to divide by; keep the newer sample
		return
	}

	v := geo.SurfaceDistance(prev.Position, p, radius) / dt
	t.Instant = v

	if t.average == nil {
		t.average = &v
		return
	}

	k := Weight(dt, windowSeconds)
	avg := *t.average*(1-k) + v*k
	t.average = &avg
}

// Reset forgets the previous sample and the average.
func (t *Tracker) Reset() {
	t.last = nil
	t.average = nil
	t.Instant = 0
}

// Average returns the running average and whether it is defined.
func (t *Tracker) Average() (float64, bool) {
	if t.average == nil {
		return 0, false
	}
	return *t.average, true
}

// Last returns the previous positioned sample, if any.
func (t *Tracker) Last() (Sample, bool) {
	if t.last == nil {
		return Sample{}, false
	}
	return *t.last, true
}
