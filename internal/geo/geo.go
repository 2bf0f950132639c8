// Package geo holds the great-circle distance kernel and the coordinate
// validation rules shared by the proximity filter and the user directory.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKM is the Earth radius used for all distance math.
const EarthRadiusKM = 6372.0

var ErrValidation = errors.New("validation error")

type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate rejects non-finite values and values outside [-180, 180] on
// both axes. Latitude deliberately shares the longitude range: profiles
// were historically validated that way and stored values rely on it.
// TODO: confirm with product whether latitude should be clamped to +/-90.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("invalid coordinates: %w", ErrValidation)
	}
	if c.Lat < -180 || c.Lat > 180 || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}
	return nil
}

// DistanceKM returns the great-circle distance between two coordinates in
// kilometers using the atan2 form of the haversine formula. The plain
// cosine-law form loses precision at small separations and acos blows up
// near antipodes, so only this form is used.
func DistanceKM(a, b Coordinate) float64 {
	dLat := toRad(math.Abs(b.Lat - a.Lat))
	dLon := toRad(math.Abs(b.Lon - a.Lon))

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKM * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
