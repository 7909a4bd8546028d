// Package focus reports whether the game window currently holds input focus.
package focus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/autoed/companion/internal/config"
)

// DefaultPollInterval bounds how often the exec probe runs its command.
const DefaultPollInterval = 250 * time.Millisecond

var (
	ErrUnknownType = errors.New("unknown focus probe type")
	ErrNoCommand   = errors.New("exec focus probe needs a command")
)

// Probe is satisfied by every focus source.
type Probe interface {
	Focused() bool
}

// New builds the probe selected by cfg.Type.
func New(cfg config.FocusConfig, logger *slog.Logger) (Probe, error) {
	switch cfg.Type {
	case "", "static":
		return NewStatic(true), nil
	case "exec":
		if cfg.Command == "" {
			return nil, ErrNoCommand
		}
		return NewExec(cfg.Command, cfg.Args, DefaultPollInterval, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, cfg.Type)
	}
}

// Static always reports the same answer unless changed with Set.
type Static struct {
	mu      sync.RWMutex
	focused bool
}

func NewStatic(focused bool) *Static {
	return &Static{focused: focused}
}

func (s *Static) Focused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focused
}

// Set changes the reported focus.
func (s *Static) Set(focused bool) {
	s.mu.Lock()
	s.focused = focused
	s.mu.Unlock()
}

// Poller is implemented by probes that refresh their answer in the background.
type Poller interface {
	Start(ctx context.Context)
	Stop()
}

// Start begins background polling when p needs it and returns the matching stop func.
func Start(ctx context.Context, p Probe) func() {
	poller, ok := p.(Poller)
	if !ok {
		return func() {}
	}
	poller.Start(ctx)
	return poller.Stop
}

// Exec runs a command and treats exit status 0 as focused. The command runs
// on its own goroutine once per poll interval; Focused only reads the last
// answer and reports false until the first check completes.
type Exec struct {
	command  string
	args     []string
	interval time.Duration
	log      *slog.Logger

	focused atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewExec(command string, args []string, interval time.Duration, logger *slog.Logger) *Exec {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Exec{
		command:  command,
		args:     args,
		interval: interval,
		log:      logger,
	}
}

func (e *Exec) Focused() bool {
	return e.focused.Load()
}

// Start launches the polling goroutine. Calling it twice is a no-op.
func (e *Exec) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	go e.poll(ctx, e.done)
}

// Stop ends polling and waits for an in-flight check to return.
func (e *Exec) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (e *Exec) poll(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.focused.Store(e.check(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// check runs the command once, bounded by the poll interval.
func (e *Exec) check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, e.interval)
	defer cancel()

	err := exec.CommandContext(ctx, e.command, e.args...).Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return true
	case errors.As(err, &exitErr), ctx.Err() != nil:
		return false
	default:
		e.log.Debug("Focus probe failed", "command", e.command, "error", err)
		return false
	}
}
