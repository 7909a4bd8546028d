// internal/storage/storage.go
package storage

import (
	"errors"
	"time"

	"github.com/autoed/companion/internal/model"
	"github.com/autoed/companion/pkg/core"
)

var (
	// ErrNoSession is returned when recording before StartSession.
	ErrNoSession = errors.New("no session started")
	// ErrCorruptWaypoints is returned with an empty collection when the
	// stored waypoints could not be read. The raw data is kept as a backup.
	ErrCorruptWaypoints = errors.New("waypoint data is corrupt")
)

// SessionInfo describes the run being recorded.
type SessionInfo struct {
	StartedAt  time.Time
	StatusFile string
	Version    string
	Host       string
}

// WaypointStore persists the ordered waypoint collection.
type WaypointStore interface {
	LoadWaypoints() ([]core.Waypoint, error)
	SaveWaypoints(waypoints []core.Waypoint) error
}

// Recorder keeps a history of decoded snapshots and fired actions.
type Recorder interface {
	StartSession(info SessionInfo) (uint, error)
	RecordSnapshot(s core.Snapshot, velocity float64, velocityOK bool) error
	RecordAction(a core.Action, s core.Snapshot, at time.Time) error
	Flush() error
}

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	WaypointStore
	Recorder
}

// PerformanceRecorder is an optional interface for backends that can keep
// the monitor's periodic counters.
type PerformanceRecorder interface {
	RecordPerformance(p model.Performance) error
}

// QueueReporter is an optional interface for backends that buffer writes.
type QueueReporter interface {
	QueueStats() (length int, dropped uint64)
}
