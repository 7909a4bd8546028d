// pkg/core/waypoint.go
package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Waypoint is a named surface location on a body.
// Two waypoints are the same waypoint iff their IDs match.
type Waypoint struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Planet    string  `json:"planet"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// NewWaypoint creates a waypoint with a fresh random ID.
func NewWaypoint(name, planet string, lat, lon float64) Waypoint {
	return Waypoint{
		ID:        uuid.NewString(),
		Name:      name,
		Planet:    planet,
		Latitude:  lat,
		Longitude: lon,
	}
}

// Equal compares by ID only.
func (w Waypoint) Equal(o Waypoint) bool {
	return w.ID == o.ID
}

// Position returns the waypoint coordinate.
func (w Waypoint) Position() Position {
	return Position{Latitude: w.Latitude, Longitude: w.Longitude}
}

// Text is the display label "name (planet)".
func (w Waypoint) Text() string {
	return fmt.Sprintf("%s (%s)", w.Name, w.Planet)
}
