// Package handlers implements the waypoint manager commands. Every mutation
// goes through the cache and is persisted to the waypoint store at once.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/autoed/companion/internal/cache"
	"github.com/autoed/companion/internal/dispatcher"
	"github.com/autoed/companion/internal/navigation"
	"github.com/autoed/companion/internal/session"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/internal/util"
	"github.com/autoed/companion/pkg/core"
)

// NamePattern names waypoints saved without an explicit name.
const NamePattern = "New Waypoint %d"

var (
	ErrNoPosition  = errors.New("no position reading")
	ErrNotFound    = errors.New("waypoint not found")
	ErrOtherBody   = errors.New("not on current planet")
	ErrEmptyName   = errors.New("waypoint name is empty")
	ErrInvalidArgs = errors.New("invalid arguments")
)

// Command names registered with the dispatcher.
const (
	CmdSave     = "waypoint:save"
	CmdTarget   = "waypoint:target"
	CmdUntarget = "waypoint:untarget"
	CmdRename   = "waypoint:rename"
	CmdMove     = "waypoint:move"
	CmdDelete   = "waypoint:delete"
	CmdList     = "waypoint:list"
)

// Dependencies holds all dependencies needed by the service
type Dependencies struct {
	Cache   *cache.WaypointCache
	Store   storage.WaypointStore
	Session *session.Context
	Logger  *slog.Logger

	// SaveTarget persists the targeted waypoint id. Optional.
	SaveTarget func(id string) error
}

// Service provides the waypoint manager operations
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// Load replaces the cache with the stored collection and restores target.
// The previous selection is always cleared first.
// A corrupt store still leaves an empty, usable collection; the error is
// logged and returned so the caller can report it.
func (s *Service) Load(target string) error {
	waypoints, err := s.deps.Store.LoadWaypoints()
	if err != nil && !errors.Is(err, storage.ErrCorruptWaypoints) {
		return fmt.Errorf("loading waypoints: %w", err)
	}
	s.deps.Cache.Replace(waypoints)
	if err != nil {
		s.deps.Logger.Error("Failed to read waypoints, starting with the readable ones", "error", err)
	}

	s.deps.Cache.Select("")
	if target != "" && !s.deps.Cache.Select(target) {
		s.deps.Logger.Warn("Saved target no longer exists", "id", target)
	}
	s.deps.Logger.Info("Waypoints loaded", "count", s.deps.Cache.Len())
	return err
}

func (s *Service) snapshot() core.Snapshot {
	if s.deps.Session == nil {
		return core.Snapshot{}
	}
	state, _ := s.deps.Session.Current()
	return state.Snapshot
}

func (s *Service) persist() error {
	if err := s.deps.Store.SaveWaypoints(s.deps.Cache.All()); err != nil {
		return fmt.Errorf("saving waypoints: %w", err)
	}
	return nil
}

// Resolve finds a waypoint by id, falling back to an exact name match.
func (s *Service) Resolve(ref string) (core.Waypoint, error) {
	if w, ok := s.deps.Cache.Get(ref); ok {
		return w, nil
	}
	if w, ok := s.deps.Cache.FindByName(ref); ok {
		return w, nil
	}
	return core.Waypoint{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// NextName returns the first free default waypoint name.
func (s *Service) NextName() string {
	return util.FindFirstAvailable(NamePattern, s.deps.Cache.HasName)
}

// SaveCurrent stores the current position as a new waypoint. An empty name
// picks the first free default name.
func (s *Service) SaveCurrent(name string) (core.Waypoint, error) {
	snap := s.snapshot()
	pos, ok := snap.Location()
	if !ok {
		return core.Waypoint{}, ErrNoPosition
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = s.NextName()
	}

	w := core.NewWaypoint(name, snap.BodyName, pos.Latitude, pos.Longitude)
	s.deps.Cache.Add(w)
	if err := s.persist(); err != nil {
		return w, err
	}
	s.deps.Logger.Info("Waypoint saved", "id", w.ID, "name", w.Name, "planet", w.Planet)
	return w, nil
}

// Target selects a waypoint. Targeting the current target clears it, and
// a waypoint on another body is refused while a position is known.
func (s *Service) Target(ref string) (*core.Waypoint, error) {
	w, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}

	if cur := s.deps.Cache.Selected(); cur != nil && cur.Equal(w) {
		return nil, s.Untarget()
	}

	if !navigation.CanTarget(w, s.snapshot()) {
		return nil, fmt.Errorf("%w: %s", ErrOtherBody, w.Text())
	}

	s.deps.Cache.Select(w.ID)
	if err := s.saveTarget(w.ID); err != nil {
		return &w, err
	}
	s.deps.Logger.Info("Waypoint targeted", "id", w.ID, "name", w.Name)
	return &w, nil
}

// Untarget clears the selection.
func (s *Service) Untarget() error {
	s.deps.Cache.Select("")
	s.deps.Logger.Info("Target cleared")
	return s.saveTarget("")
}

func (s *Service) saveTarget(id string) error {
	if s.deps.SaveTarget == nil {
		return nil
	}
	return s.deps.SaveTarget(id)
}

// Rename changes a waypoint's name.
func (s *Service) Rename(ref, name string) (core.Waypoint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Waypoint{}, ErrEmptyName
	}
	w, err := s.Resolve(ref)
	if err != nil {
		return core.Waypoint{}, err
	}
	w.Name = name
	s.deps.Cache.Update(w)
	return w, s.persist()
}

// Move changes a waypoint's coordinates. The planet is kept.
func (s *Service) Move(ref string, lat, lon float64) (core.Waypoint, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return core.Waypoint{}, fmt.Errorf("%w: position %.4f, %.4f out of range", ErrInvalidArgs, lat, lon)
	}
	w, err := s.Resolve(ref)
	if err != nil {
		return core.Waypoint{}, err
	}
	w.Latitude, w.Longitude = lat, lon
	s.deps.Cache.Update(w)
	return w, s.persist()
}

// Delete removes a waypoint, clearing the target if it was targeted.
func (s *Service) Delete(ref string) error {
	w, err := s.Resolve(ref)
	if err != nil {
		return err
	}
	wasTarget := false
	if cur := s.deps.Cache.Selected(); cur != nil && cur.Equal(w) {
		wasTarget = true
	}
	s.deps.Cache.Remove(w.ID)
	if err := s.persist(); err != nil {
		return err
	}
	s.deps.Logger.Info("Waypoint deleted", "id", w.ID, "name", w.Name)
	if wasTarget {
		return s.saveTarget("")
	}
	return nil
}

// List returns the waypoints matching opts sorted by name.
func (s *Service) List(opts navigation.ListOptions) []core.Waypoint {
	return navigation.SortByName(navigation.Filter(s.deps.Cache.All(), s.snapshot(), opts))
}

// ListGrouped returns the waypoints matching opts grouped by planet.
func (s *Service) ListGrouped(opts navigation.ListOptions) []navigation.PlanetGroup {
	return navigation.GroupByPlanet(navigation.Filter(s.deps.Cache.All(), s.snapshot(), opts))
}

// RegisterHandlers registers the waypoint commands with the dispatcher.
// Arguments are positional strings: a waypoint reference is an id or a name.
func RegisterHandlers(d *dispatcher.Dispatcher, s *Service, opts ...dispatcher.Option) {
	d.Register(CmdSave, func(e dispatcher.Event) (any, error) {
		return s.SaveCurrent(strings.Join(e.Args, " "))
	}, opts...)

	d.Register(CmdTarget, func(e dispatcher.Event) (any, error) {
		if len(e.Args) != 1 {
			return nil, fmt.Errorf("%w: target needs a waypoint", ErrInvalidArgs)
		}
		return s.Target(e.Args[0])
	}, opts...)

	d.Register(CmdUntarget, func(e dispatcher.Event) (any, error) {
		return nil, s.Untarget()
	}, opts...)

	d.Register(CmdRename, func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 2 {
			return nil, fmt.Errorf("%w: rename needs a waypoint and a name", ErrInvalidArgs)
		}
		return s.Rename(e.Args[0], strings.Join(e.Args[1:], " "))
	}, opts...)

	d.Register(CmdMove, func(e dispatcher.Event) (any, error) {
		if len(e.Args) != 3 {
			return nil, fmt.Errorf("%w: move needs a waypoint, latitude and longitude", ErrInvalidArgs)
		}
		lat, err := strconv.ParseFloat(e.Args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: latitude: %v", ErrInvalidArgs, err)
		}
		lon, err := strconv.ParseFloat(e.Args[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: longitude: %v", ErrInvalidArgs, err)
		}
		return s.Move(e.Args[0], lat, lon)
	}, opts...)

	d.Register(CmdDelete, func(e dispatcher.Event) (any, error) {
		if len(e.Args) != 1 {
			return nil, fmt.Errorf("%w: delete needs a waypoint", ErrInvalidArgs)
		}
		return nil, s.Delete(e.Args[0])
	}, opts...)

	d.Register(CmdList, func(e dispatcher.Event) (any, error) {
		return s.List(navigation.ListOptions{
			Query:      strings.Join(e.Args, " "),
			FuzzyRatio: navigation.DefaultFuzzyRatio,
		}), nil
	}, opts...)
}
