// Package logging sets up slog for the companion: text output to the session
// log file or stdout, an optional OpenTelemetry bridge, optional GELF
// shipping, and a zerolog adapter for the infrastructure managers.
package logging

import (
	"path/filepath"
	"time"
)

const sessionStampLayout = "20060102_150405"

// SessionFile names a per-session file "<app>.<stamp>.<suffix>" in dir.
func SessionFile(dir, appName string, sessionStart time.Time, suffix string) string {
	return filepath.Join(dir, appName+"."+sessionStart.Format(sessionStampLayout)+"."+suffix)
}

// LogFilePath is the session's text log file.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return SessionFile(logsDir, appName, sessionStart, "log")
}
