// Package geo provides the geodesy used across the service: Qibla bearing,
// haversine distance for mosque ranking, and compass alignment math.
//
// Coordinates are orb.Point values in (lon, lat) order. All bearings are
// degrees clockwise from true north, normalized into [0, 360).
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Kaaba is the fixed Qibla reference point (21.4225 N, 39.826206 E).
var Kaaba = orb.Point{39.826206, 21.4225}

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0

	// AlignmentThresholdDegrees is how close the relative angle must be to
	// zero before the compass counts as pointing at the target.
	AlignmentThresholdDegrees = 5.0
)

// NewCoordinate validates latitude/longitude ranges and returns an orb.Point.
// The math functions themselves do not validate; NaN propagates.
func NewCoordinate(lat, lon float64) (orb.Point, error) {
	if lat < -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return orb.Point{}, fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return orb.Point{lon, lat}, nil
}

// Bearing returns the initial great-circle bearing from one point toward
// another, in degrees clockwise from true north, normalized to [0, 360).
func Bearing(from, to orb.Point) float64 {
	lat1 := degToRad(from.Lat())
	lat2 := degToRad(to.Lat())
	dLon := degToRad(to.Lon() - from.Lon())

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return Normalize(radToDeg(math.Atan2(y, x)))
}

// QiblaBearing returns the bearing from the given point toward the Kaaba.
// Constant per coordinate; callers may compute it once and reuse it.
func QiblaBearing(p orb.Point) float64 {
	return Bearing(p, Kaaba)
}

// HaversineKm returns the great-circle distance between two points in
// kilometers, rounded to two decimal places.
func HaversineKm(a, b orb.Point) float64 {
	dLat := degToRad(b.Lat() - a.Lat())
	dLon := degToRad(b.Lon() - a.Lon())

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat()))*math.Cos(degToRad(b.Lat()))*sinLon*sinLon

	km := 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
	return math.Round(km*100) / 100
}

// RelativeAngle returns (target - heading) renormalized into [0, 360).
// Recomputed on every heading update; O(1) and side effect free.
func RelativeAngle(target, heading float64) float64 {
	return Normalize(target - heading)
}

// Aligned reports whether a relative angle is within the alignment threshold
// of zero, treating 360 - t and t as equally close.
func Aligned(relative float64) bool {
	return relative < AlignmentThresholdDegrees ||
		relative > 360-AlignmentThresholdDegrees
}

// Normalize maps any angle in degrees into [0, 360).
func Normalize(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }
