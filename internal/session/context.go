// Package session publishes the latest ingestion state to read-only consumers.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/autoed/companion/internal/automation"
	"github.com/autoed/companion/internal/model"
	"github.com/autoed/companion/pkg/core"
)

// State is everything the ingestion loop knows after one snapshot.
// A published State is never modified.
type State struct {
	Snapshot   core.Snapshot
	Automation automation.SessionState
	Velocity   float64
	VelocityOK bool
	Updated    time.Time
}

// Context holds the current session record and the latest published State.
// The ingestion loop is the only caller of Publish.
type Context struct {
	state atomic.Pointer[State]

	mu      sync.RWMutex
	session *model.Session
}

// NewContext creates a new Context with no state published yet.
func NewContext() *Context {
	return &Context{
		session: &model.Session{StatusFile: "No session started"},
	}
}

// Publish swaps in a new state.
func (c *Context) Publish(s State) {
	c.state.Store(&s)
}

// Current returns the latest state, or false before the first snapshot.
func (c *Context) Current() (State, bool) {
	s := c.state.Load()
	if s == nil {
		return State{}, false
	}
	return *s, true
}

// GetSession returns the current session record.
func (c *Context) GetSession() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession sets the current session record.
func (c *Context) SetSession(s *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}
