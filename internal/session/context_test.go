package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoed/companion/internal/model"
	"github.com/autoed/companion/pkg/core"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	_, ok := ctx.Current()
	assert.False(t, ok)
	assert.Equal(t, "No session started", ctx.GetSession().StatusFile)
}

func TestContext_PublishIsCopied(t *testing.T) {
	ctx := NewContext()

	s := State{Snapshot: core.Snapshot{BodyName: "Moon"}, Velocity: 3, VelocityOK: true}
	ctx.Publish(s)
	s.Snapshot.BodyName = "changed"

	got, ok := ctx.Current()
	require.True(t, ok)
	assert.Equal(t, "Moon", got.Snapshot.BodyName)
	assert.Equal(t, 3.0, got.Velocity)
}

func TestContext_SetSession(t *testing.T) {
	ctx := NewContext()
	ctx.SetSession(&model.Session{StatusFile: "/x/Status.json"})
	assert.Equal(t, "/x/Status.json", ctx.GetSession().StatusFile)
}

func TestContext_ConcurrentReaders(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			ctx.Publish(State{Snapshot: core.Snapshot{Heading: float64(i), Altitude: float64(i)}})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if s, ok := ctx.Current(); ok {
					assert.Equal(t, s.Snapshot.Heading, s.Snapshot.Altitude, "torn read")
				}
			}
		}()
	}
	wg.Wait()
}
