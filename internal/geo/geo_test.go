package geo

import (
	"math"
	"testing"
)

const distanceToleranceKM = 1e-9

func TestDistanceIsSymmetric(t *testing.T) {
	pairs := []struct {
		a, b Coordinate
	}{
		{Coordinate{Lat: 53.9006, Lon: 27.5590}, Coordinate{Lat: 52.0976, Lon: 23.7341}},
		{Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 1}},
		{Coordinate{Lat: -33.8688, Lon: 151.2093}, Coordinate{Lat: 55.1904, Lon: 30.2049}},
		{Coordinate{Lat: 89.9, Lon: -179.9}, Coordinate{Lat: -89.9, Lon: 179.9}},
	}

	for _, pair := range pairs {
		forward := DistanceKM(pair.a, pair.b)
		backward := DistanceKM(pair.b, pair.a)
		if math.Abs(forward-backward) > distanceToleranceKM {
			t.Fatalf("distance not symmetric for %+v/%+v: %v vs %v", pair.a, pair.b, forward, backward)
		}
	}
}

func TestDistanceToSelfIsZero(t *testing.T) {
	points := []Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 53.9006, Lon: 27.5590},
		{Lat: -45, Lon: 170},
	}

	for _, p := range points {
		if got := DistanceKM(p, p); got != 0 {
			t.Fatalf("distance to self for %+v: got %v want 0", p, got)
		}
	}
}

func TestDistanceStableNearAntipodes(t *testing.T) {
	// Half the circumference for R=6372 km.
	want := math.Pi * EarthRadiusKM

	got := DistanceKM(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 180})
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("antipodal distance is not finite: %v", got)
	}
	if math.Abs(got-want) > 1 {
		t.Fatalf("antipodal distance: got %v want about %v", got, want)
	}

	// Slightly off exact antipode, where the acos form degrades.
	near := DistanceKM(Coordinate{Lat: 0.0001, Lon: 0}, Coordinate{Lat: 0, Lon: 179.9999})
	if math.IsNaN(near) || math.IsInf(near, 0) {
		t.Fatalf("near-antipodal distance is not finite: %v", near)
	}
	if near > want+1 {
		t.Fatalf("near-antipodal distance exceeds half circumference: %v", near)
	}
}

func TestDistanceOneDegreeAlongMeridian(t *testing.T) {
	// One degree of arc at R=6372 is about 111.2 km.
	got := DistanceKM(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 1})
	if math.Abs(got-111.2) > 1 {
		t.Fatalf("one-degree distance: got %v want about 111.2", got)
	}
}

func TestValidateAcceptsSharedLatitudeRange(t *testing.T) {
	// Latitude uses the longitude range on purpose, see Validate.
	valid := []Coordinate{
		{Lat: -100, Lon: 100},
		{Lat: 180, Lon: -180},
		{Lat: 0, Lon: 0},
	}
	for _, c := range valid {
		if err := c.Validate(); err != nil {
			t.Fatalf("expected %+v to validate, got %v", c, err)
		}
	}

	invalid := []Coordinate{
		{Lat: -180.5, Lon: 0},
		{Lat: 0, Lon: 181},
		{Lat: math.NaN(), Lon: 0},
		{Lat: 0, Lon: math.Inf(1)},
	}
	for _, c := range invalid {
		if err := c.Validate(); err == nil {
			t.Fatalf("expected %+v to fail validation", c)
		}
	}
}
