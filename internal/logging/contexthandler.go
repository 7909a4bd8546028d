package logging

import (
	"context"
	"log/slog"

	"github.com/autoed/companion/internal/session"
)

// ContextProvider returns attributes computed at log time.
type ContextProvider func() []slog.Attr

// ContextHandler adds the provider's attributes to every record before
// passing it on.
type ContextHandler struct {
	slog.Handler
	provider ContextProvider
}

// NewContextHandler wraps inner; a nil provider leaves records unchanged.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{Handler: inner, provider: provider}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.Handler.WithAttrs(attrs), h.provider)
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return NewContextHandler(h.Handler.WithGroup(name), h.provider)
}

// SessionProvider reports the body and position availability of the
// latest published state.
func SessionProvider(sess *session.Context) ContextProvider {
	return func() []slog.Attr {
		state, ok := sess.Current()
		if !ok {
			return nil
		}
		if !state.Snapshot.HasPosition {
			return []slog.Attr{slog.Bool("hasPosition", false)}
		}
		return []slog.Attr{
			slog.String("body", state.Snapshot.BodyName),
			slog.Bool("hasPosition", true),
		}
	}
}
