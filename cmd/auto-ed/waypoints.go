package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/autoed/companion/internal/cache"
	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/dispatcher"
	"github.com/autoed/companion/internal/handlers"
	"github.com/autoed/companion/internal/navigation"
	"github.com/autoed/companion/internal/parser"
	"github.com/autoed/companion/internal/session"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/pkg/core"
)

const waypointsUsage = `Usage: auto-ed waypoints <command> [args]

Commands:
  list [query]                 list waypoints, optionally fuzzy filtered
  save [name]                  save the current position
  target <waypoint>            target a waypoint, or clear it if already targeted
  untarget                     clear the target
  rename <waypoint> <name>     rename a waypoint
  move <waypoint> <lat> <lon>  change a waypoint's coordinates
  delete <waypoint>            delete a waypoint

A waypoint is referenced by id or by exact name.`

// runWaypoints runs one waypoint manager command against the configured
// store, using the status file once for the current position.
func runWaypoints(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" {
		fmt.Fprintln(out, waypointsUsage)
		return nil
	}

	closeLogs, err := initLogging(false, nil)
	defer closeLogs()
	if err != nil {
		return err
	}

	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	sess := session.NewContext()
	if snap, err := readStatusOnce(config.StatusFilePath()); err != nil {
		Logger.Debug("No status reading", "error", err)
	} else {
		sess.Publish(session.State{Snapshot: snap, Updated: snap.Timestamp})
	}

	nav, err := config.GetNavigationConfig()
	if err != nil {
		Logger.Warn("navigation config clamped", "error", err)
	}

	svc := handlers.NewService(handlers.Dependencies{
		Cache:      cache.NewWaypointCache(),
		Store:      backend,
		Session:    sess,
		Logger:     Logger,
		SaveTarget: config.SetTarget,
	})
	if err := svc.Load(nav.Target); err != nil && !errors.Is(err, storage.ErrCorruptWaypoints) {
		return err
	}

	if args[0] == "list" {
		printWaypoints(out, svc, sess, nav, strings.Join(args[1:], " "))
		return nil
	}

	d, err := dispatcher.New(Logger)
	if err != nil {
		return err
	}
	defer d.Close()
	handlers.RegisterHandlers(d, svc)

	command := "waypoint:" + args[0]
	if !d.HasHandler(command) {
		return fmt.Errorf("%w: waypoints %s", ErrUnknownCommand, args[0])
	}
	result, err := d.Dispatch(dispatcher.Event{Command: command, Args: args[1:], Timestamp: time.Now()})
	if err != nil {
		return err
	}

	switch v := result.(type) {
	case core.Waypoint:
		fmt.Fprintf(out, "%s: %s\n", args[0], formatWaypoint(v))
	case *core.Waypoint:
		if v == nil {
			fmt.Fprintln(out, "target cleared")
		} else {
			fmt.Fprintf(out, "target: %s\n", formatWaypoint(*v))
		}
	default:
		fmt.Fprintf(out, "%s: ok\n", args[0])
	}
	return nil
}

func readStatusOnce(path string) (core.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Snapshot{}, err
	}
	return parser.NewParser(Logger).ParseStatus(core.Payload{Data: data, ReadAt: time.Now()})
}

func formatWaypoint(w core.Waypoint) string {
	return fmt.Sprintf("%s (%.4f, %.4f) [%s]", w.Text(), w.Latitude, w.Longitude, w.ID)
}

func printWaypoints(out io.Writer, svc *handlers.Service, sess *session.Context, nav config.NavigationConfig, query string) {
	opts := navigation.ListOptions{
		FilterCurrentPlanet: nav.FilterCurrentPlanet,
		Query:               query,
		FuzzyRatio:          nav.FuzzyRatio,
	}

	state, _ := sess.Current()
	var selected *core.Waypoint
	if t, err := svc.Resolve(nav.Target); err == nil {
		selected = &t
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	row := func(w core.Waypoint) {
		mark := " "
		if selected != nil && selected.ID == w.ID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%s\n", mark, w.Name, w.Latitude, w.Longitude, w.ID)
	}

	if nav.GroupByPlanet {
		for _, g := range svc.ListGrouped(opts) {
			fmt.Fprintf(tw, "%s\t\t\t\t\n", g.Planet)
			for _, w := range g.Waypoints {
				row(w)
			}
		}
	} else {
		for _, w := range svc.List(opts) {
			row(w)
		}
	}
	_ = tw.Flush()

	text := navigation.Format(navigation.Compute(selected, state.Snapshot, 0, false))
	fmt.Fprintf(out, "\nTarget: %s\nBearing: %s\nDistance: %s\n", text.Target, text.Bearing, text.Distance)
}
