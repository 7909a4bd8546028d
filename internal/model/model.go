package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&Session{},
	&Waypoint{},
	&StatusRecord{},
	&ActionRecord{},
	&Performance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// Session is one run of the companion. Every recorded row belongs to a session.
type Session struct {
	gorm.Model
	StartedAt  time.Time `json:"startedAt" gorm:"index:idx_session_started_at"`
	StatusFile string    `json:"statusFile" gorm:"size:512"`
	Version    string    `json:"version" gorm:"size:64"`
	Host       string    `json:"host" gorm:"size:128"`

	StatusRecords []StatusRecord
	ActionRecords []ActionRecord
}

func (*Session) TableName() string {
	return "sessions"
}

// Performance is a periodic sample of ingestion counters, written by the monitor.
type Performance struct {
	Time         time.Time `json:"time" gorm:"index:idx_performance_time"`
	SessionID    uint      `json:"sessionId" gorm:"index:idx_performance_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Delivered    uint64    `json:"delivered"`
	EmptyReads   uint64    `json:"emptyReads"`
	Duplicates   uint64    `json:"duplicates"`
	ReadErrors   uint64    `json:"readErrors"`
	Decoded      uint64    `json:"decoded"`
	DecodeErrors uint64    `json:"decodeErrors"`
	QueueLength  int       `json:"queueLength"`
	QueueDropped uint64    `json:"queueDropped"`
}

func (*Performance) TableName() string {
	return "performances"
}

////////////////////////
// WAYPOINTS
////////////////////////

// Waypoint is a saved surface location. SortOrder keeps the user's ordering.
type Waypoint struct {
	ID        string     `json:"id" gorm:"primarykey;size:36"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	SortOrder int        `json:"sortOrder" gorm:"index:idx_waypoint_sort_order"`
	Name      string     `json:"name" gorm:"size:200"`
	Planet    string     `json:"planet" gorm:"size:200;index:idx_waypoint_planet"`
	Location  geom.Point `json:"location"` // X = longitude, Y = latitude
}

func (*Waypoint) TableName() string {
	return "waypoints"
}

////////////////////////
// RECORDING
////////////////////////

// StatusRecord is one decoded status snapshot.
type StatusRecord struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time" gorm:"index:idx_statusrecord_time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_statusrecord_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`

	Flags        uint32          `json:"flags"`
	FlagNames    string          `json:"flagNames" gorm:"size:1024"`
	HasPosition  bool            `json:"hasPosition" gorm:"default:false"`
	Location     geom.Point      `json:"location"` // empty point without position
	Heading      float64         `json:"heading"`
	Altitude     float64         `json:"altitude"`
	PlanetRadius float64         `json:"planetRadius"`
	BodyName     string          `json:"bodyName" gorm:"size:200"`
	Velocity     sql.NullFloat64 `json:"velocity"` // running average, null while undefined
	Raw          datatypes.JSON  `json:"raw"`
}

func (*StatusRecord) TableName() string {
	return "status_records"
}

// ActionRecord is one fired corrective action.
type ActionRecord struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time" gorm:"index:idx_actionrecord_time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_actionrecord_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Action    string    `json:"action" gorm:"size:64;index:idx_actionrecord_action"`
	Flags     uint32    `json:"flags"` // flags of the snapshot that fired it
}

func (*ActionRecord) TableName() string {
	return "action_records"
}
