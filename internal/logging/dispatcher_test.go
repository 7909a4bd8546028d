package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoed/companion/internal/dispatcher"
)

var _ dispatcher.Logger = (*DispatcherLogger)(nil)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "failed to parse log output")
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(l *DispatcherLogger)
	}{
		{"debug", func(l *DispatcherLogger) { l.Debug("msg", "action", "gear-toggle") }},
		{"info", func(l *DispatcherLogger) { l.Info("msg", "action", "gear-toggle") }},
		{"error", func(l *DispatcherLogger) { l.Error("msg", "action", "gear-toggle") }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "msg", entry["message"])
			assert.Equal(t, "gear-toggle", entry["action"])
		})
	}
}

func TestDispatcherLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Error("handler failed", "code", 500, "reason", "internal", 7, "dropped", "odd")

	entry := decodeLine(t, &buf)
	assert.Equal(t, float64(500), entry["code"])
	assert.Equal(t, "internal", entry["reason"])
	assert.NotContains(t, entry, "odd")
}

func TestDispatcherLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Error("event failed", "command", "gear-toggle", "error", errors.New("boom"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "gear-toggle", entry["command"])
}

func TestDispatcherLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("filtered")
	assert.Empty(t, buf.String())
}
