package logging

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGELFHandler_SendsMessage(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	h, closer, err := NewGELFHandler(conn.LocalAddr().String(), "info")
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })

	slog.New(h).Info("waypoint saved", "name", "Base")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 8192)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(buf[:n]))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Contains(t, msg["short_message"], "waypoint saved")
}

func TestNewGELFHandler_BadAddress(t *testing.T) {
	_, _, err := NewGELFHandler("not an address", "info")
	assert.Error(t, err)
}
