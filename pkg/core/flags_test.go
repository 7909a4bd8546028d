package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagPositions(t *testing.T) {
	assert.Equal(t, Flag(1), FlagDocked)
	assert.Equal(t, Flag(1<<5), FlagFlightAssistOff)
	assert.Equal(t, Flag(1<<15), FlagSrvDriveAssist)
	assert.Equal(t, Flag(1<<21), FlagHasLatLong)
	assert.Equal(t, Flag(1<<26), FlagInSrv)
	assert.Equal(t, Flag(1<<28), FlagNightVision)
	assert.Equal(t, Flag(1<<31), FlagSrvHighBeam)

	for pos := 0; pos < FlagCount; pos++ {
		assert.Equal(t, Flag(1)<<pos, FlagAt(pos))
	}
}

func TestFlagString(t *testing.T) {
	assert.Equal(t, "None", Flag(0).String())
	assert.Equal(t, "GearDown", FlagGearDown.String())
	assert.Equal(t, "Docked|Landed", (FlagDocked | FlagLanded).String())
}

func TestFlagsHasAny(t *testing.T) {
	f := Flags(FlagDocked | FlagGearDown)

	assert.True(t, f.Has(FlagDocked))
	assert.True(t, f.Has(FlagDocked|FlagGearDown))
	assert.False(t, f.Has(FlagDocked|FlagLanded))
	assert.True(t, f.Any(FlagDocked|FlagLanded))
	assert.False(t, f.Any(FlagLanded|FlagInSrv))
	assert.Equal(t, []string{"Docked", "GearDown"}, f.Set())
}
