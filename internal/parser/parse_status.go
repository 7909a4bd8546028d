package parser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/autoed/companion/pkg/core"
)

// statusRecord mirrors the fields of the status file we read.
// Pointers distinguish missing fields from zero values.
type statusRecord struct {
	Timestamp    string   `json:"timestamp"`
	Event        string   `json:"event"`
	Flags        *uint32  `json:"Flags"`
	Latitude     *float64 `json:"Latitude"`
	Longitude    *float64 `json:"Longitude"`
	Heading      *float64 `json:"Heading"`
	Altitude     *float64 `json:"Altitude"`
	PlanetRadius *float64 `json:"PlanetRadius"`
	BodyName     *string  `json:"BodyName"`
}

// substate binds one derived boolean to the bits it is computed from.
type substate struct {
	name   string
	mask   core.Flag
	negate bool
	set    func(*core.Snapshot, bool)
}

// substates is the decode table. A substate is true when any bit of mask is
// set, inverted when negate is true.
var substates = []substate{
	{"flightAssistOn", core.FlagFlightAssistOff, true, func(s *core.Snapshot, v bool) { s.FlightAssistOn = v }},
	{"driveAssistOn", core.FlagSrvDriveAssist, false, func(s *core.Snapshot, v bool) { s.DriveAssistOn = v }},
	{"gearDown", core.FlagGearDown, false, func(s *core.Snapshot, v bool) { s.GearDown = v }},
	{"inSrv", core.FlagInSrv, false, func(s *core.Snapshot, v bool) { s.InSrv = v }},
	{"fsdActive", core.FlagFsdCharging | core.FlagSupercruise | core.FlagFsdJump, false, func(s *core.Snapshot, v bool) { s.FsdActive = v }},
	{"dockedOrLanded", core.FlagDocked | core.FlagLanded, false, func(s *core.Snapshot, v bool) { s.DockedOrLanded = v }},
	{"lightsOn", core.FlagLightsOn, false, func(s *core.Snapshot, v bool) { s.LightsOn = v }},
	{"nightVisionOn", core.FlagNightVision, false, func(s *core.Snapshot, v bool) { s.NightVisionOn = v }},
	{"hasPosition", core.FlagHasLatLong, false, func(s *core.Snapshot, v bool) { s.HasPosition = v }},
}

// Derive builds a snapshot holding only the flag-derived substates.
func Derive(flags core.Flags) core.Snapshot {
	snap := core.Snapshot{Flags: flags}
	for _, st := range substates {
		v := flags.Any(st.mask)
		if st.negate {
			v = !v
		}
		st.set(&snap, v)
	}
	return snap
}

// ParseStatus decodes one status file read into a snapshot.
// Positional fields are only read when the has-lat/long bit is set; otherwise
// they stay zero whatever the payload holds.
func (p *Parser) ParseStatus(payload core.Payload) (core.Snapshot, error) {
	snap, err := p.parseStatus(payload)
	if err != nil {
		p.failed.Add(1)
		return core.Snapshot{}, err
	}
	p.parsed.Add(1)
	return snap, nil
}

func (p *Parser) parseStatus(payload core.Payload) (core.Snapshot, error) {
	var rec statusRecord
	if err := json.Unmarshal(payload.Data, &rec); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if rec.Flags == nil {
		return core.Snapshot{}, fmt.Errorf("%w: missing field %q", ErrDecode, "Flags")
	}

	snap := Derive(core.Flags(*rec.Flags))
	snap.Timestamp = payload.ReadAt
	snap.Raw = payload.Data

	if rec.Timestamp != "" {
		gt, err := time.Parse(time.RFC3339, rec.Timestamp)
		if err != nil {
			p.logger.Debug("Ignoring unparseable status timestamp", "timestamp", rec.Timestamp, "error", err)
		} else {
			snap.GameTime = gt
		}
	}

	if !snap.HasPosition {
		return snap, nil
	}

	missing := firstMissing(map[string]bool{
		"Latitude":     rec.Latitude == nil,
		"Longitude":    rec.Longitude == nil,
		"Heading":      rec.Heading == nil,
		"Altitude":     rec.Altitude == nil,
		"PlanetRadius": rec.PlanetRadius == nil,
		"BodyName":     rec.BodyName == nil,
	})
	if missing != "" {
		return core.Snapshot{}, fmt.Errorf("%w: missing field %q", ErrDecode, missing)
	}

	snap.Position = core.Position{Latitude: *rec.Latitude, Longitude: *rec.Longitude}
	snap.Heading = *rec.Heading
	snap.Altitude = *rec.Altitude
	snap.PlanetRadius = *rec.PlanetRadius
	snap.BodyName = *rec.BodyName

	return snap, nil
}

// positionFields fixes the report order of missing fields.
var positionFields = []string{"Latitude", "Longitude", "Heading", "Altitude", "PlanetRadius", "BodyName"}

func firstMissing(absent map[string]bool) string {
	for _, name := range positionFields {
		if absent[name] {
			return name
		}
	}
	return ""
}
