package cache

import (
	"sync"

	"github.com/autoed/companion/pkg/core"
)

// WaypointCache holds the loaded waypoint collection in insertion order and
// the id of the currently targeted waypoint. Readers get copies.
type WaypointCache struct {
	m         sync.RWMutex
	waypoints []core.Waypoint
	selected  string
}

func NewWaypointCache() *WaypointCache {
	return &WaypointCache{
		waypoints: make([]core.Waypoint, 0),
	}
}

// Replace swaps in a freshly loaded collection. A selection whose waypoint
// no longer exists is dropped.
func (c *WaypointCache) Replace(waypoints []core.Waypoint) {
	c.m.Lock()
	defer c.m.Unlock()
	c.waypoints = append(make([]core.Waypoint, 0, len(waypoints)), waypoints...)
	if c.indexOf(c.selected) < 0 {
		c.selected = ""
	}
}

func (c *WaypointCache) All() []core.Waypoint {
	c.m.RLock()
	defer c.m.RUnlock()
	return append([]core.Waypoint(nil), c.waypoints...)
}

func (c *WaypointCache) Len() int {
	c.m.RLock()
	defer c.m.RUnlock()
	return len(c.waypoints)
}

func (c *WaypointCache) Get(id string) (core.Waypoint, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.waypoints[i], true
	}
	return core.Waypoint{}, false
}

// FindByName returns the first waypoint with the given name.
func (c *WaypointCache) FindByName(name string) (core.Waypoint, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	for _, w := range c.waypoints {
		if w.Name == name {
			return w, true
		}
	}
	return core.Waypoint{}, false
}

// HasName reports whether any waypoint uses name.
func (c *WaypointCache) HasName(name string) bool {
	_, ok := c.FindByName(name)
	return ok
}

func (c *WaypointCache) Add(w core.Waypoint) {
	c.m.Lock()
	defer c.m.Unlock()
	c.waypoints = append(c.waypoints, w)
}

// Update replaces the waypoint with the same id. It returns false if there is none.
func (c *WaypointCache) Update(w core.Waypoint) bool {
	c.m.Lock()
	defer c.m.Unlock()
	i := c.indexOf(w.ID)
	if i < 0 {
		return false
	}
	c.waypoints[i] = w
	return true
}

// Remove deletes the waypoint and clears the selection if it was targeted.
func (c *WaypointCache) Remove(id string) bool {
	c.m.Lock()
	defer c.m.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.waypoints = append(c.waypoints[:i], c.waypoints[i+1:]...)
	if c.selected == id {
		c.selected = ""
	}
	return true
}

// Select targets the waypoint with the given id; an empty id clears the target.
func (c *WaypointCache) Select(id string) bool {
	c.m.Lock()
	defer c.m.Unlock()
	if id == "" {
		c.selected = ""
		return true
	}
	if c.indexOf(id) < 0 {
		return false
	}
	c.selected = id
	return true
}

// Selected returns a copy of the targeted waypoint, or nil.
func (c *WaypointCache) Selected() *core.Waypoint {
	c.m.RLock()
	defer c.m.RUnlock()
	i := c.indexOf(c.selected)
	if i < 0 {
		return nil
	}
	w := c.waypoints[i]
	return &w
}

func (c *WaypointCache) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, w := range c.waypoints {
		if w.ID == id {
			return i
		}
	}
	return -1
}
