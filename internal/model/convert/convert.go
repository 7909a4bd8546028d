// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"

	"github.com/autoed/companion/internal/geo"
	"github.com/autoed/companion/internal/model"
	"github.com/autoed/companion/pkg/core"
)

// WaypointToModel converts a core.Waypoint to a GORM model.Waypoint.
// order is the waypoint's position in the user's list.
func WaypointToModel(w core.Waypoint, order int) model.Waypoint {
	return model.Waypoint{
		ID:        w.ID,
		SortOrder: order,
		Name:      w.Name,
		Planet:    w.Planet,
		Location:  geo.PointFromPosition(w.Position()),
	}
}

// WaypointToCore converts a GORM model.Waypoint back to a core.Waypoint.
func WaypointToCore(m model.Waypoint) (core.Waypoint, error) {
	pos, err := geo.PositionFromPoint(m.Location)
	if err != nil {
		return core.Waypoint{}, err
	}
	return core.Waypoint{
		ID:        m.ID,
		Name:      m.Name,
		Planet:    m.Planet,
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
	}, nil
}

// SnapshotToRecord converts a decoded snapshot to a StatusRecord.
// velocity is the running average, ok false while it is undefined.
func SnapshotToRecord(sessionID uint, s core.Snapshot, velocity float64, ok bool) model.StatusRecord {
	r := model.StatusRecord{
		Time:        recordTime(s.Timestamp),
		SessionID:   sessionID,
		Flags:       uint32(s.Flags),
		FlagNames:   core.Flag(s.Flags).String(),
		HasPosition: s.HasPosition,
		Velocity:    sql.NullFloat64{Float64: velocity, Valid: ok},
		Raw:         rawJSON(s.Raw),
	}
	if pos, has := s.Location(); has {
		r.Location = geo.PointFromPosition(pos)
		r.Heading = s.Heading
		r.Altitude = s.Altitude
		r.PlanetRadius = s.PlanetRadius
		r.BodyName = s.BodyName
	}
	return r
}

// ActionToRecord converts a fired action to an ActionRecord.
func ActionToRecord(sessionID uint, a core.Action, flags core.Flags, at time.Time) model.ActionRecord {
	return model.ActionRecord{
		Time:      recordTime(at),
		SessionID: sessionID,
		Action:    string(a),
		Flags:     uint32(flags),
	}
}

func recordTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// rawJSON keeps the payload as a JSON column; anything that is not an
// object is stored as null.
func rawJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 || raw[0] != '{' {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}
