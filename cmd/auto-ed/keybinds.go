package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/autoed/companion/internal/actuator"
	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/focus"
	"github.com/autoed/companion/pkg/core"
)

// keybindSettle is the pause between regaining focus and pressing the key,
// so the game's input dialog is ready.
const keybindSettle = 500 * time.Millisecond

type keybindSetup struct {
	in       *bufio.Reader
	out      io.Writer
	act      actuator.Actuator
	probe    focus.Probe
	keys     map[core.Action]string
	modifier string
	poll     time.Duration
	settle   time.Duration
}

// runKeybinds walks through the actions so each can be bound in the game's
// controls menu. With no arguments every action is offered.
func runKeybinds(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	closeLogs, err := initLogging(false, nil)
	defer closeLogs()
	if err != nil {
		return err
	}

	actions, err := parseActions(args)
	if err != nil {
		return err
	}

	actCfg := config.GetActuatorConfig()
	act, err := actuator.New(actCfg, Logger)
	if err != nil {
		return err
	}
	probe, err := focus.New(config.GetFocusConfig(), Logger)
	if err != nil {
		return err
	}
	defer focus.Start(ctx, probe)()

	k := &keybindSetup{
		in:       bufio.NewReader(in),
		out:      out,
		act:      act,
		probe:    probe,
		keys:     actuator.Keys(actCfg.Keys),
		modifier: actCfg.Modifier,
		poll:     focus.DefaultPollInterval,
		settle:   keybindSettle,
	}
	return k.run(ctx, actions)
}

func parseActions(args []string) ([]core.Action, error) {
	if len(args) == 0 {
		return core.Actions, nil
	}
	known := make(map[core.Action]bool, len(core.Actions))
	for _, a := range core.Actions {
		known[a] = true
	}
	actions := make([]core.Action, 0, len(args))
	for _, arg := range args {
		a := core.Action(arg)
		if !known[a] {
			return nil, fmt.Errorf("%w: unknown action %s", ErrUnknownCommand, arg)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func (k *keybindSetup) run(ctx context.Context, actions []core.Action) error {
	fmt.Fprintln(k.out, "-------- SETUP --------")
	fmt.Fprintln(k.out, `Open the key bind settings and open the "Input dialog" for the given binding.`)
	fmt.Fprintln(k.out, "Binding it as the secondary binding is recommended.")
	fmt.Fprintln(k.out, "Once the input dialog is open, continue here.")
	fmt.Fprintln(k.out)

	for _, a := range actions {
		if err := k.bind(ctx, a); err != nil {
			return err
		}
	}
	fmt.Fprintln(k.out, "Setup complete")
	fmt.Fprintln(k.out, "Remember to save your game settings")
	return nil
}

func (k *keybindSetup) bind(ctx context.Context, a core.Action) error {
	fmt.Fprintf(k.out, "> %s (%s+%s)\n", a.Label(), k.modifier, k.keys[a])
	fmt.Fprint(k.out, "Press enter to continue, then re-focus the game... ")
	if _, err := k.readLine(); err != nil {
		return err
	}

	for {
		fmt.Fprintln(k.out, "Waiting for the game to get focus")
		if err := k.waitForFocus(ctx); err != nil {
			return err
		}

		fmt.Fprintln(k.out, "Setting key bind")
		if err := sleepCtx(ctx, k.settle); err != nil {
			return err
		}
		if err := k.act.Fire(ctx, a); err != nil {
			return fmt.Errorf("firing %s: %w", a, err)
		}

		fmt.Fprint(k.out, "Press enter to continue or type anything else to repeat... ")
		line, err := k.readLine()
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func (k *keybindSetup) readLine() (string, error) {
	line, err := k.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (k *keybindSetup) waitForFocus(ctx context.Context) error {
	for !k.probe.Focused() {
		if err := sleepCtx(ctx, k.poll); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
