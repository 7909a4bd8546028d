package navigation

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/autoed/companion/pkg/core"
)

const (
	textNoTarget    = "[No Target]"
	textUnavailable = "[Unavailable]"
	textNoETA       = "N/A"
)

// Text is the human readable rendering of a Navigation.
type Text struct {
	Target   string
	Bearing  string
	Distance string
}

// Format renders nav for the status report and the CLI.
func Format(nav core.Navigation) Text {
	if nav.Target == nil {
		return Text{Target: textNoTarget, Bearing: textNoTarget, Distance: textNoTarget}
	}

	t := Text{Target: nav.Target.Text(), Bearing: textUnavailable, Distance: textUnavailable}
	if !nav.Available {
		return t
	}

	eta := textNoETA
	if nav.ETAAvailable {
		eta = fmt.Sprintf("%.0fs", nav.ETASeconds)
	}
	t.Bearing = fmt.Sprintf("%.1f° (ETA: %s)", nav.Bearing, eta)
	t.Distance = fmt.Sprintf("%s (%s on surface)", FormatDistance(nav.AltitudeDistance), FormatDistance(nav.SurfaceDistance))
	return t
}

// FormatDistance prints meters with an SI prefix and two decimals.
func FormatDistance(meters float64) string {
	return humanize.SIWithDigits(meters, 2, "m")
}
