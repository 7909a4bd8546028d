// Package actuator delivers fired actions to the game. Delivery is
// fire-and-forget: the game never acknowledges a key press.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/dispatcher"
	"github.com/autoed/companion/pkg/core"
)

const defaultTimeout = 2 * time.Second

var (
	ErrUnknownType = errors.New("unknown actuator type")
	ErrNoCommand   = errors.New("exec actuator needs a command")
	ErrNoKey       = errors.New("no key bound to action")
)

// DefaultKeys are the secondary bindings the keybinds helper sets up.
var DefaultKeys = map[core.Action]string{
	core.ActionFlightAssistToggle: "F5",
	core.ActionDriveAssistToggle:  "F6",
	core.ActionGearToggle:         "F7",
	core.ActionLightsToggle:       "F8",
	core.ActionNightVisionToggle:  "F9",
}

// Actuator fires one action.
type Actuator interface {
	Fire(ctx context.Context, a core.Action) error
}

// New builds the actuator selected by cfg.Type.
func New(cfg config.ActuatorConfig, logger *slog.Logger) (Actuator, error) {
	switch cfg.Type {
	case "", "log":
		return NewLog(logger), nil
	case "exec":
		return NewExec(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, cfg.Type)
	}
}

// Keys merges the configured overrides into DefaultKeys.
func Keys(overrides map[string]string) map[core.Action]string {
	keys := make(map[core.Action]string, len(DefaultKeys))
	for a, k := range DefaultKeys {
		keys[a] = k
	}
	for name, k := range overrides {
		keys[core.Action(strings.ToLower(name))] = k
	}
	return keys
}

// RegisterActions routes every automation action through d to a.
func RegisterActions(d *dispatcher.Dispatcher, a Actuator, opts ...dispatcher.Option) {
	for _, action := range core.Actions {
		action := action
		d.Register(string(action), func(e dispatcher.Event) (any, error) {
			return nil, a.Fire(context.Background(), action)
		}, opts...)
	}
}

// Log only records the action. It is the default until a key-press helper
// is configured.
type Log struct {
	log *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{log: logger}
}

func (l *Log) Fire(_ context.Context, a core.Action) error {
	l.log.Info("Action fired", "action", string(a), "binding", a.Label())
	return nil
}

// Exec runs an external key-press helper once per action. Arguments may
// contain the placeholders {key}, {modifier} and {action}.
type Exec struct {
	command  string
	args     []string
	modifier string
	keys     map[core.Action]string
	timeout  time.Duration
	log      *slog.Logger
}

func NewExec(cfg config.ActuatorConfig, logger *slog.Logger) (*Exec, error) {
	if cfg.Command == "" {
		return nil, ErrNoCommand
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Exec{
		command:  cfg.Command,
		args:     cfg.Args,
		modifier: cfg.Modifier,
		keys:     Keys(cfg.Keys),
		timeout:  timeout,
		log:      logger,
	}, nil
}

func (e *Exec) Fire(ctx context.Context, a core.Action) error {
	key, ok := e.keys[a]
	if !ok || key == "" {
		return fmt.Errorf("%w: %s", ErrNoKey, a)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := expandArgs(e.args, a, key, e.modifier)
	out, err := exec.CommandContext(ctx, e.command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("firing %s: %w (output: %s)", a, err, strings.TrimSpace(string(out)))
	}
	e.log.Debug("Action fired", "action", string(a), "key", key, "command", e.command)
	return nil
}

func expandArgs(args []string, a core.Action, key, modifier string) []string {
	r := strings.NewReplacer("{key}", key, "{modifier}", modifier, "{action}", string(a))
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = r.Replace(arg)
	}
	return out
}
