package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaypointEqualByID(t *testing.T) {
	a := Waypoint{ID: "a", Name: "Base", Planet: "Body 1", Latitude: 1, Longitude: 2}
	sameID := Waypoint{ID: "a", Name: "Renamed", Planet: "Body 2", Latitude: 9, Longitude: 9}
	sameFields := Waypoint{ID: "b", Name: "Base", Planet: "Body 1", Latitude: 1, Longitude: 2}

	assert.True(t, a.Equal(sameID))
	assert.False(t, a.Equal(sameFields))
}

func TestNewWaypoint(t *testing.T) {
	a := NewWaypoint("Crash site", "HIP 1 b", 10, 20)
	b := NewWaypoint("Crash site", "HIP 1 b", 10, 20)

	assert.NotEmpty(t, a.ID)
	assert.False(t, a.Equal(b))
	assert.Equal(t, Position{Latitude: 10, Longitude: 20}, a.Position())
	assert.Equal(t, "Crash site (HIP 1 b)", a.Text())
}

func TestActionLabels(t *testing.T) {
	assert.Len(t, Actions, 5)
	assert.Equal(t, "Landing Gear", ActionGearToggle.Label())
	assert.Equal(t, "custom", Action("custom").Label())
}
