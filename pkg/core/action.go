// pkg/core/action.go
package core

// Action is a named corrective input command.
type Action string

const (
	ActionFlightAssistToggle Action = "flight-assist-toggle"
	ActionDriveAssistToggle  Action = "drive-assist-toggle"
	ActionGearToggle         Action = "gear-toggle"
	ActionLightsToggle       Action = "lights-toggle"
	ActionNightVisionToggle  Action = "night-vision-toggle"
)

// Actions lists every action in rule evaluation order.
var Actions = []Action{
	ActionFlightAssistToggle,
	ActionDriveAssistToggle,
	ActionGearToggle,
	ActionLightsToggle,
	ActionNightVisionToggle,
}

// Label is the human readable binding name used in the game's controls menu.
func (a Action) Label() string {
	switch a {
	case ActionFlightAssistToggle:
		return "Flight Assist (Toggle)"
	case ActionDriveAssistToggle:
		return "Drive Assist (Toggle)"
	case ActionGearToggle:
		return "Landing Gear"
	case ActionLightsToggle:
		return "Lights"
	case ActionNightVisionToggle:
		return "Night Vision"
	default:
		return string(a)
	}
}
