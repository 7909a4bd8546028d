package navigation

import (
	"sort"
	"strings"

	"github.com/autoed/companion/pkg/core"
)

// DefaultFuzzyRatio is the minimum match score for the waypoint text filter.
const DefaultFuzzyRatio = 70

// ListOptions controls which waypoints are listed.
type ListOptions struct {
	FilterCurrentPlanet bool
	Query               string
	FuzzyRatio          int
}

// PlanetGroup is the waypoints of one body, sorted by name.
type PlanetGroup struct {
	Planet    string
	Waypoints []core.Waypoint
}

// Filter keeps the waypoints matching opts, preserving order.
// The planet filter only applies while a position is known.
func Filter(waypoints []core.Waypoint, snap core.Snapshot, opts ListOptions) []core.Waypoint {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	out := make([]core.Waypoint, 0, len(waypoints))
	for _, w := range waypoints {
		if opts.FilterCurrentPlanet && snap.HasPosition && w.Planet != snap.BodyName {
			continue
		}
		if query != "" && PartialRatio(query, strings.ToLower(w.Name+" "+w.Planet)) < opts.FuzzyRatio {
			continue
		}
		out = append(out, w)
	}
	return out
}

// SortByName returns a copy of waypoints ordered by name.
func SortByName(waypoints []core.Waypoint) []core.Waypoint {
	out := append([]core.Waypoint(nil), waypoints...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// GroupByPlanet buckets waypoints by planet. Groups are ordered by planet
// name and each group is sorted by waypoint name.
func GroupByPlanet(waypoints []core.Waypoint) []PlanetGroup {
	byPlanet := make(map[string][]core.Waypoint)
	for _, w := range waypoints {
		byPlanet[w.Planet] = append(byPlanet[w.Planet], w)
	}

	planets := make([]string, 0, len(byPlanet))
	for p := range byPlanet {
		planets = append(planets, p)
	}
	sort.Strings(planets)

	groups := make([]PlanetGroup, 0, len(planets))
	for _, p := range planets {
		groups = append(groups, PlanetGroup{Planet: p, Waypoints: SortByName(byPlanet[p])})
	}
	return groups
}
