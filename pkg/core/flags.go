// pkg/core/flags.go
package core

import "strings"

// Flag is a single bit of the status file's Flags field.
type Flag uint32

// Status flag bits, in bit-position order.
const (
	FlagDocked                    Flag = 1 << iota // 0
	FlagLanded                                     // 1
	FlagGearDown                                   // 2
	FlagShieldsUp                                  // 3
	FlagSupercruise                                // 4
	FlagFlightAssistOff                            // 5
	FlagHardpointsDeployed                         // 6
	FlagInWing                                     // 7
	FlagLightsOn                                   // 8
	FlagCargoScoopDeployed                         // 9
	FlagSilentRunning                              // 10
	FlagScoopingFuel                               // 11
	FlagSrvHandbrake                               // 12
	FlagSrvTurretView                              // 13
	FlagSrvTurretRetracted                         // 14
	FlagSrvDriveAssist                             // 15
	FlagFsdMassLocked                              // 16
	FlagFsdCharging                                // 17
	FlagFsdCooldown                                // 18
	FlagLowFuel                                    // 19
	FlagOverHeating                                // 20
	FlagHasLatLong                                 // 21
	FlagIsInDanger                                 // 22
	FlagBeingInterdicted                           // 23
	FlagInMainShip                                 // 24
	FlagInFighter                                  // 25
	FlagInSrv                                      // 26
	FlagHudAnalysisMode                            // 27
	FlagNightVision                                // 28
	FlagAltitudeFromAverageRadius                  // 29
	FlagFsdJump                                    // 30
	FlagSrvHighBeam                                // 31
)

// FlagCount is the number of defined bit positions.
const FlagCount = 32

var flagNames = [FlagCount]string{
	"Docked",
	"Landed",
	"GearDown",
	"ShieldsUp",
	"Supercruise",
	"FlightAssistOff",
	"HardpointsDeployed",
	"InWing",
	"LightsOn",
	"CargoScoopDeployed",
	"SilentRunning",
	"ScoopingFuel",
	"SrvHandbrake",
	"SrvTurretView",
	"SrvTurretRetracted",
	"SrvDriveAssist",
	"FsdMassLocked",
	"FsdCharging",
	"FsdCooldown",
	"LowFuel",
	"OverHeating",
	"HasLatLong",
	"IsInDanger",
	"BeingInterdicted",
	"InMainShip",
	"InFighter",
	"InSrv",
	"HudAnalysisMode",
	"NightVision",
	"AltitudeFromAverageRadius",
	"FsdJump",
	"SrvHighBeam",
}

// FlagAt returns the flag for a bit position in [0, FlagCount).
func FlagAt(pos int) Flag {
	return Flag(1) << pos
}

// String returns the flag name, or a '|' separated list for combined flags.
func (f Flag) String() string {
	if f == 0 {
		return "None"
	}
	var names []string
	for pos := 0; pos < FlagCount; pos++ {
		if f&FlagAt(pos) != 0 {
			names = append(names, flagNames[pos])
		}
	}
	return strings.Join(names, "|")
}

// Flags is the raw bitmask as read from the status file.
type Flags uint32

// Has reports whether every bit of f is set.
func (fl Flags) Has(f Flag) bool {
	return uint32(fl)&uint32(f) == uint32(f)
}

// Any reports whether at least one bit of f is set.
func (fl Flags) Any(f Flag) bool {
	return uint32(fl)&uint32(f) != 0
}

// Set returns the names of all set bits in bit-position order.
func (fl Flags) Set() []string {
	var names []string
	for pos := 0; pos < FlagCount; pos++ {
		if fl.Any(FlagAt(pos)) {
			names = append(names, flagNames[pos])
		}
	}
	return names
}
