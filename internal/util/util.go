// Package util provides small helpers shared by the waypoint and storage code.
package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindFirstAvailable formats pattern with 0, 1, 2... and returns the first
// result for which taken reports false.
func FindFirstAvailable(pattern string, taken func(string) bool) string {
	for i := 0; ; i++ {
		candidate := fmt.Sprintf(pattern, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// FileExists reports whether path names an existing file or directory.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FirstFreeFile returns the first path in dir built from pattern that does not exist yet.
func FirstFreeFile(dir, pattern string) string {
	return FindFirstAvailable(filepath.Join(dir, pattern), FileExists)
}
