package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autoed/companion/internal/session"
	"github.com/autoed/companion/pkg/core"
)

func TestSessionProvider(t *testing.T) {
	sess := session.NewContext()
	provider := SessionProvider(sess)

	assert.Nil(t, provider(), "no attributes before the first snapshot")

	sess.Publish(session.State{})
	assert.Equal(t, []slog.Attr{slog.Bool("hasPosition", false)}, provider())

	sess.Publish(session.State{Snapshot: core.Snapshot{HasPosition: true, BodyName: "Moon A"}})
	assert.Equal(t, []slog.Attr{
		slog.String("body", "Moon A"),
		slog.Bool("hasPosition", true),
	}, provider())
}

func TestContextHandler_InjectsAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	h := NewContextHandler(inner, func() []slog.Attr {
		return []slog.Attr{slog.Int("sessionId", 4)}
	})

	slog.New(h).WithGroup("").With("component", "worker").Info("tick")
	assert.Contains(t, buf.String(), "component=worker")
	assert.Contains(t, buf.String(), "sessionId=4")
}
