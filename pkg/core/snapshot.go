// pkg/core/snapshot.go
package core

import "time"

// Payload is one raw read of the status file.
type Payload struct {
	Data   []byte
	ReadAt time.Time
}

// Position is a planetographic coordinate in degrees.
type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Snapshot is one decoded status record. It is never mutated after decoding.
// Position, Heading, PlanetRadius, Altitude and BodyName are zero unless
// HasPosition is set.
type Snapshot struct {
	Flags Flags

	FlightAssistOn bool
	DriveAssistOn  bool
	GearDown       bool
	InSrv          bool
	FsdActive      bool
	DockedOrLanded bool
	LightsOn       bool
	NightVisionOn  bool
	HasPosition    bool

	Position     Position
	Heading      float64
	PlanetRadius float64
	Altitude     float64
	BodyName     string

	// Timestamp is the capture time at ingestion.
	Timestamp time.Time
	// GameTime is the game's own timestamp field, zero if missing.
	GameTime time.Time

	Raw []byte
}

// Location returns the position when tracking is available.
func (s Snapshot) Location() (Position, bool) {
	if !s.HasPosition {
		return Position{}, false
	}
	return s.Position, true
}

// ShellRadius is the radius of the sphere the vehicle currently moves on.
func (s Snapshot) ShellRadius() float64 {
	return s.PlanetRadius + s.Altitude
}
