// internal/storage/memory/memory.go
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/queue"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/internal/util"
	"github.com/autoed/companion/pkg/core"
)

// BackupPattern names copies of an unreadable waypoint file.
const BackupPattern = "waypoints-backup-%d.json"

// SnapshotEntry is one recorded snapshot.
type SnapshotEntry struct {
	Snapshot   core.Snapshot
	Velocity   float64
	VelocityOK bool
}

// ActionEntry is one recorded action.
type ActionEntry struct {
	Time   time.Time
	Action core.Action
	Flags  core.Flags
}

// Backend keeps waypoints in a JSON file and the recent session history in memory.
type Backend struct {
	cfg config.MemoryConfig

	mu      sync.Mutex
	session *storage.SessionInfo

	snapshots *queue.Queue[SnapshotEntry]
	actions   *queue.Queue[ActionEntry]
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:       cfg,
		snapshots: queue.NewBounded[SnapshotEntry](cfg.HistorySize),
		actions:   queue.NewBounded[ActionEntry](cfg.HistorySize),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports the history when an output directory is configured.
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.Lock()
	started := b.session != nil
	b.mu.Unlock()
	if !started {
		return nil
	}
	_, err := b.exportJSON()
	return err
}

// LoadWaypoints reads the waypoint file. A missing file is created empty.
// An unreadable file is copied to the first free backup name next to it,
// reset to an empty list, and ErrCorruptWaypoints is returned with no waypoints.
func (b *Backend) LoadWaypoints() ([]core.Waypoint, error) {
	path := b.cfg.WaypointFile
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeFileAtomic(path, []byte("[]")); err != nil {
			return nil, fmt.Errorf("creating waypoint file: %w", err)
		}
		return []core.Waypoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading waypoint file: %w", err)
	}

	var waypoints []core.Waypoint
	if err := json.Unmarshal(data, &waypoints); err != nil {
		backup := util.FirstFreeFile(filepath.Dir(path), BackupPattern)
		if werr := os.WriteFile(backup, data, 0o644); werr != nil {
			return []core.Waypoint{}, fmt.Errorf("%w: %v (backup failed: %v)", storage.ErrCorruptWaypoints, err, werr)
		}
		if werr := writeFileAtomic(path, []byte("[]")); werr != nil {
			return []core.Waypoint{}, fmt.Errorf("%w: %v (backup saved to %s, reset failed: %v)", storage.ErrCorruptWaypoints, err, backup, werr)
		}
		return []core.Waypoint{}, fmt.Errorf("%w: %v (backup saved to %s)", storage.ErrCorruptWaypoints, err, backup)
	}

	for i := range waypoints {
		if waypoints[i].ID == "" {
			waypoints[i].ID = uuid.NewString()
		}
	}
	if waypoints == nil {
		waypoints = []core.Waypoint{}
	}
	return waypoints, nil
}

// SaveWaypoints replaces the waypoint file.
func (b *Backend) SaveWaypoints(waypoints []core.Waypoint) error {
	if waypoints == nil {
		waypoints = []core.Waypoint{}
	}
	data, err := json.MarshalIndent(waypoints, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding waypoints: %w", err)
	}
	return writeFileAtomic(b.cfg.WaypointFile, data)
}

// StartSession begins a new recording. The memory backend has a single session with ID 1.
func (b *Backend) StartSession(info storage.SessionInfo) (uint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = &info
	b.snapshots.GetAndEmpty()
	b.actions.GetAndEmpty()
	return 1, nil
}

// RecordSnapshot appends to the bounded history.
func (b *Backend) RecordSnapshot(s core.Snapshot, velocity float64, velocityOK bool) error {
	if !b.started() {
		return storage.ErrNoSession
	}
	b.snapshots.Push(SnapshotEntry{Snapshot: s, Velocity: velocity, VelocityOK: velocityOK})
	return nil
}

// RecordAction appends to the bounded history.
func (b *Backend) RecordAction(a core.Action, s core.Snapshot, at time.Time) error {
	if !b.started() {
		return storage.ErrNoSession
	}
	b.actions.Push(ActionEntry{Time: at, Action: a, Flags: s.Flags})
	return nil
}

// Flush is a no-op; the history lives in memory.
func (b *Backend) Flush() error {
	return nil
}

// QueueStats reports the history size and how many entries were evicted.
func (b *Backend) QueueStats() (int, uint64) {
	return b.snapshots.Len() + b.actions.Len(), b.snapshots.Dropped() + b.actions.Dropped()
}

// History returns copies of the recorded snapshots and actions.
func (b *Backend) History() ([]SnapshotEntry, []ActionEntry) {
	return b.snapshots.Items(), b.actions.Items()
}

func (b *Backend) started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
