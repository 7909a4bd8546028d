package parser

import (
	"errors"
	"log/slog"
	"sync/atomic"
)

// ErrDecode is returned for any payload that cannot be turned into a snapshot.
// Callers decide on recovery; the parser keeps no state about failed payloads.
var ErrDecode = errors.New("status decode failed")

// Parser provides pure payload -> core.Snapshot conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger

	parsed atomic.Uint64
	failed atomic.Uint64
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Stats returns the number of successful and failed decodes so far.
func (p *Parser) Stats() (parsed, failed uint64) {
	return p.parsed.Load(), p.failed.Load()
}
