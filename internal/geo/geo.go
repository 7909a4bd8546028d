package geo

import (
	"errors"
	"math"

	"github.com/autoed/companion/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Bodies are modelled as spheres; there is no ellipsoid correction.
// Stored points use X=longitude, Y=latitude in degrees, Z unused.

// ErrInvalidCoordinates is returned when a point cannot be read back as a position
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

func radians(p core.Position) (lat, lon float64) {
	return p.Latitude * math.Pi / 180, p.Longitude * math.Pi / 180
}

// Bearing returns the initial great-circle bearing from one point to another in degrees, in [0, 360).
func Bearing(from, to core.Position) float64 {
	lat1, lon1 := radians(from)
	lat2, lon2 := radians(to)
	dLon := lon2 - lon1

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	deg = math.Mod(deg+360, 360)
	// Mod can return 360 for tiny negative inputs after the shift
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// SurfaceDistance returns the haversine distance between two points on a sphere of the given radius.
// The result is in the radius' unit.
func SurfaceDistance(from, to core.Position, radius float64) float64 {
	lat1, lon1 := radians(from)
	lat2, lon2 := radians(to)
	dLat := lat2 - lat1
	dLon := lon2 - lon1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// a may overshoot [0,1] by an ulp near antipodes
	a = math.Min(math.Max(a, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * radius
}

// PointFromPosition converts a position into a 2D point for storage.
func PointFromPosition(p core.Position) geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.Longitude, Y: p.Latitude},
			Type: geom.DimXY,
		},
	)
}

// PositionFromPoint converts a stored point back into a position.
func PositionFromPoint(pt geom.Point) (core.Position, error) {
	coords, ok := pt.Coordinates()
	if !ok {
		return core.Position{}, ErrInvalidCoordinates
	}
	return core.Position{Latitude: coords.Y, Longitude: coords.X}, nil
}
