// Package navigation turns the latest snapshot, the targeted waypoint and
// the velocity estimate into bearing, distance and ETA for display.
package navigation

import (
	"github.com/autoed/companion/internal/geo"
	"github.com/autoed/companion/pkg/core"
)

// Compute derives navigation toward selected. The result is unavailable
// when there is no target, no position, or the target is on another body.
// ETA additionally needs a strictly positive average velocity.
func Compute(selected *core.Waypoint, snap core.Snapshot, avg float64, avgOK bool) core.Navigation {
	nav := core.Navigation{Target: selected}
	if selected == nil {
		return nav
	}

	pos, ok := snap.Location()
	if !ok || selected.Planet != snap.BodyName {
		return nav
	}

	target := selected.Position()
	nav.Available = true
	nav.Bearing = geo.Bearing(pos, target)
	nav.AltitudeDistance = geo.SurfaceDistance(pos, target, snap.ShellRadius())
	nav.SurfaceDistance = geo.SurfaceDistance(pos, target, snap.PlanetRadius)

	if avgOK && avg > 0 {
		nav.ETAAvailable = true
		nav.ETASeconds = nav.AltitudeDistance / avg
	}
	return nav
}

// CanTarget reports whether w may be selected given the current snapshot.
// Targeting is refused only when a position is known and w is on another body.
func CanTarget(w core.Waypoint, snap core.Snapshot) bool {
	if !snap.HasPosition {
		return true
	}
	return w.Planet == snap.BodyName
}
