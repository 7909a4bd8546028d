package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindFirstAvailable(t *testing.T) {
	tests := []struct {
		name     string
		taken    []string
		expected string
	}{
		{"nothing taken", nil, "New Waypoint 0"},
		{"first taken", []string{"New Waypoint 0"}, "New Waypoint 1"},
		{"gap", []string{"New Waypoint 0", "New Waypoint 2"}, "New Waypoint 1"},
		{"unrelated names", []string{"Base", "Crash site"}, "New Waypoint 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := make(map[string]bool)
			for _, n := range tt.taken {
				set[n] = true
			}
			result := FindFirstAvailable("New Waypoint %d", func(s string) bool { return set[s] })
			if result != tt.expected {
				t.Errorf("FindFirstAvailable() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFirstFreeFile(t *testing.T) {
	dir := t.TempDir()

	first := FirstFreeFile(dir, "waypoints-backup-%d.json")
	if first != filepath.Join(dir, "waypoints-backup-0.json") {
		t.Errorf("unexpected first path %q", first)
	}

	if err := os.WriteFile(first, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	second := FirstFreeFile(dir, "waypoints-backup-%d.json")
	if second != filepath.Join(dir, "waypoints-backup-1.json") {
		t.Errorf("unexpected second path %q", second)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if !FileExists(dir) {
		t.Error("expected temp dir to exist")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("expected missing file to not exist")
	}
}
