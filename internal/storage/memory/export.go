// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/autoed/companion/pkg/core"
)

// SessionExport is the root JSON structure of an exported session
type SessionExport struct {
	StartedAt  time.Time      `json:"startedAt"`
	StatusFile string         `json:"statusFile"`
	Version    string         `json:"version"`
	Host       string         `json:"host"`
	Snapshots  []SnapshotJSON `json:"snapshots"`
	Actions    []ActionJSON   `json:"actions"`
}

// SnapshotJSON is the exported form of a snapshot
type SnapshotJSON struct {
	Time      time.Time      `json:"time"`
	Flags     uint32         `json:"flags"`
	FlagNames []string       `json:"flagNames"`
	Position  *core.Position `json:"position,omitempty"`
	Altitude  float64        `json:"altitude,omitempty"`
	Body      string         `json:"body,omitempty"`
	Velocity  *float64       `json:"velocity,omitempty"`
}

// ActionJSON is the exported form of a fired action
type ActionJSON struct {
	Time   time.Time `json:"time"`
	Action string    `json:"action"`
	Flags  uint32    `json:"flags"`
}

func (b *Backend) buildExport() SessionExport {
	b.mu.Lock()
	info := *b.session
	b.mu.Unlock()

	snaps, acts := b.History()

	export := SessionExport{
		StartedAt:  info.StartedAt,
		StatusFile: info.StatusFile,
		Version:    info.Version,
		Host:       info.Host,
		Snapshots:  make([]SnapshotJSON, 0, len(snaps)),
		Actions:    make([]ActionJSON, 0, len(acts)),
	}

	for _, e := range snaps {
		s := SnapshotJSON{
			Time:      e.Snapshot.Timestamp,
			Flags:     uint32(e.Snapshot.Flags),
			FlagNames: e.Snapshot.Flags.Set(),
		}
		if pos, ok := e.Snapshot.Location(); ok {
			s.Position = &pos
			s.Altitude = e.Snapshot.Altitude
			s.Body = e.Snapshot.BodyName
		}
		if e.VelocityOK {
			v := e.Velocity
			s.Velocity = &v
		}
		export.Snapshots = append(export.Snapshots, s)
	}
	for _, a := range acts {
		export.Actions = append(export.Actions, ActionJSON{Time: a.Time, Action: string(a.Action), Flags: uint32(a.Flags)})
	}
	return export
}

// exportJSON writes the session history to a gzipped JSON file and returns its path
func (b *Backend) exportJSON() (string, error) {
	export := b.buildExport()

	filename := fmt.Sprintf("session_%s.json.gz", export.StartedAt.Format("20060102_150405"))
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(export); err != nil {
		gz.Close()
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("failed to finish export: %w", err)
	}
	return outputPath, nil
}
