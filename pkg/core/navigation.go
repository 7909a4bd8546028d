// pkg/core/navigation.go
package core

// Navigation is the computed guidance toward the selected waypoint.
// Fields are only meaningful when the matching availability flag is set;
// an unavailable value is not the same as zero.
type Navigation struct {
	Target *Waypoint

	// Available is false without a position or when the target is on another body.
	Available        bool
	Bearing          float64
	AltitudeDistance float64
	SurfaceDistance  float64

	ETAAvailable bool
	ETASeconds   float64
}
