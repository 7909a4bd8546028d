package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoed/companion/pkg/core"
)

func wp(id, name, planet string) core.Waypoint {
	return core.Waypoint{ID: id, Name: name, Planet: planet}
}

func TestWaypointCache_New(t *testing.T) {
	c := NewWaypointCache()

	require.NotNil(t, c)
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Selected())
}

func TestWaypointCache_AddGetFind(t *testing.T) {
	c := NewWaypointCache()
	c.Add(wp("a", "Base", "Moon 1"))
	c.Add(wp("b", "Crash", "Moon 2"))

	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, "Crash", got.Name)

	got, ok = c.FindByName("Base")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)

	assert.True(t, c.HasName("Crash"))
	assert.False(t, c.HasName("Nope"))

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestWaypointCache_AllPreservesOrderAndCopies(t *testing.T) {
	c := NewWaypointCache()
	c.Add(wp("a", "1", "p"))
	c.Add(wp("b", "2", "p"))
	c.Add(wp("c", "3", "p"))

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	all[0].Name = "changed"
	got, _ := c.Get("a")
	assert.Equal(t, "1", got.Name)
}

func TestWaypointCache_Update(t *testing.T) {
	c := NewWaypointCache()
	c.Add(wp("a", "Base", "Moon 1"))

	assert.True(t, c.Update(wp("a", "Home", "Moon 1")))
	got, _ := c.Get("a")
	assert.Equal(t, "Home", got.Name)

	assert.False(t, c.Update(wp("zzz", "Nope", "")))
}

func TestWaypointCache_SelectAndRemove(t *testing.T) {
	c := NewWaypointCache()
	c.Add(wp("a", "Base", "Moon 1"))
	c.Add(wp("b", "Crash", "Moon 1"))

	assert.False(t, c.Select("missing"))
	assert.Nil(t, c.Selected())

	require.True(t, c.Select("b"))
	require.NotNil(t, c.Selected())
	assert.Equal(t, "b", c.Selected().ID)

	assert.True(t, c.Remove("a"))
	assert.Equal(t, "b", c.Selected().ID, "removing another waypoint keeps the target")

	assert.True(t, c.Remove("b"))
	assert.Nil(t, c.Selected())
	assert.False(t, c.Remove("b"))
}

func TestWaypointCache_ReplaceDropsStaleSelection(t *testing.T) {
	c := NewWaypointCache()
	c.Add(wp("a", "Base", "Moon 1"))
	c.Select("a")

	c.Replace([]core.Waypoint{wp("a", "Base", "Moon 1"), wp("b", "x", "y")})
	require.NotNil(t, c.Selected())

	c.Replace([]core.Waypoint{wp("b", "x", "y")})
	assert.Nil(t, c.Selected())
	assert.Equal(t, 1, c.Len())
}

func TestWaypointCache_SelectEmptyClears(t *testing.T) {
	c := NewWaypointCache()
	c.Add(wp("a", "Base", "Moon 1"))
	c.Select("a")

	assert.True(t, c.Select(""))
	assert.Nil(t, c.Selected())
}

func TestWaypointCache_Concurrent(t *testing.T) {
	c := NewWaypointCache()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Add(core.NewWaypoint("w", "p", float64(i), 0))
		}(i)
		go func() {
			defer wg.Done()
			_ = c.All()
			_ = c.Selected()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
}
