package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFHandler returns a text handler shipping records to a Graylog
// GELF UDP input. Close the returned closer on shutdown.
func NewGELFHandler(address, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to graylog at %s: %w", address, err)
	}
	w.Facility = InstrumentationName
	return slog.NewTextHandler(w, HandlerOptions(level)), w, nil
}
