package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/autoed/companion/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

const tolerance = 1e-9

func pos(lat, lon float64) core.Position {
	return core.Position{Latitude: lat, Longitude: lon}
}

func TestBearing_DueEastOnEquator(t *testing.T) {
	got := Bearing(pos(0, 0), pos(0, 10))
	if math.Abs(got-90) > tolerance {
		t.Errorf("expected 90, got %f", got)
	}
}

func TestBearing_Cardinals(t *testing.T) {
	tests := []struct {
		name string
		to   core.Position
		want float64
	}{
		{"north", pos(10, 0), 0},
		{"east", pos(0, 10), 90},
		{"south", pos(-10, 0), 180},
		{"west", pos(0, -10), 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(pos(0, 0), tt.to)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestBearing_SamePointIsZero(t *testing.T) {
	points := []core.Position{pos(0, 0), pos(45.5, -120.25), pos(-89.9, 179.9), pos(12, 0)}
	for _, p := range points {
		got := Bearing(p, p)
		if math.Abs(got) > tolerance {
			t.Errorf("bearing(%v,%v): expected 0, got %f", p, p, got)
		}
	}
}

func TestBearing_AlwaysInRange(t *testing.T) {
	for lat1 := -80.0; lat1 <= 80; lat1 += 20 {
		for lon1 := -170.0; lon1 <= 170; lon1 += 34 {
			for lat2 := -85.0; lat2 <= 85; lat2 += 17 {
				for lon2 := -175.0; lon2 <= 175; lon2 += 25 {
					got := Bearing(pos(lat1, lon1), pos(lat2, lon2))
					if got < 0 || got >= 360 || math.IsNaN(got) {
						t.Fatalf("bearing out of range: %f", got)
					}
				}
			}
		}
	}
}

func TestBearing_NorthWestIsBelow360(t *testing.T) {
	got := Bearing(pos(0, 0), pos(10, -1e-12))
	if got < 0 || got >= 360 {
		t.Errorf("bearing out of range: %f", got)
	}
}

func TestSurfaceDistance_SamePointIsZero(t *testing.T) {
	for _, r := range []float64{0, 1, 6371000, 1234.5} {
		got := SurfaceDistance(pos(12.3, 45.6), pos(12.3, 45.6), r)
		if got != 0 {
			t.Errorf("radius %f: expected 0, got %f", r, got)
		}
	}
}

func TestSurfaceDistance_Symmetric(t *testing.T) {
	a, b := pos(10, 20), pos(-33.3, 151.2)
	ab := SurfaceDistance(a, b, 1000)
	ba := SurfaceDistance(b, a, 1000)
	if math.Abs(ab-ba) > tolerance {
		t.Errorf("expected symmetry, got %f and %f", ab, ba)
	}
}

func TestSurfaceDistance_ScalesWithRadius(t *testing.T) {
	a, b := pos(1, 2), pos(3, 4)
	base := SurfaceDistance(a, b, 100)
	for _, s := range []float64{0.5, 2, 10, 1000} {
		got := SurfaceDistance(a, b, 100*s)
		if math.Abs(got-base*s) > 1e-6*base*s {
			t.Errorf("scale %f: expected %f, got %f", s, base*s, got)
		}
	}
}

func TestSurfaceDistance_QuarterCircumference(t *testing.T) {
	got := SurfaceDistance(pos(0, 0), pos(0, 90), 1)
	if math.Abs(got-math.Pi/2) > tolerance {
		t.Errorf("expected %f, got %f", math.Pi/2, got)
	}
}

func TestSurfaceDistance_Antipodal(t *testing.T) {
	got := SurfaceDistance(pos(0, 0), pos(0, 180), 1)
	if math.IsNaN(got) {
		t.Fatal("antipodal distance is NaN")
	}
	if math.Abs(got-math.Pi) > 1e-6 {
		t.Errorf("expected %f, got %f", math.Pi, got)
	}

	got = SurfaceDistance(pos(45, 10), pos(-45, -170), 1)
	if math.IsNaN(got) || math.Abs(got-math.Pi) > 1e-6 {
		t.Errorf("expected %f, got %f", math.Pi, got)
	}
}

func TestSurfaceDistance_SmallSeparation(t *testing.T) {
	// 10 m along the equator of a 1000 km sphere
	radius := 1_000_000.0
	dLon := 10 / radius * 180 / math.Pi
	got := SurfaceDistance(pos(0, 0), pos(0, dLon), radius)
	if math.Abs(got-10) > 1e-6 {
		t.Errorf("expected 10, got %f", got)
	}
}

func TestPointRoundTrip(t *testing.T) {
	p := pos(-12.5, 77.25)
	pt := PointFromPosition(p)

	got, err := PositionFromPoint(pt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Errorf("expected %v, got %v", p, got)
	}
}

func TestPositionFromPoint_Empty(t *testing.T) {
	_, err := PositionFromPoint(geom.NewEmptyPoint(geom.DimXY))
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}
