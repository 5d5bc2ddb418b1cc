package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQiblaBearing_London(t *testing.T) {
	london, err := NewCoordinate(51.5074, -0.1278)
	require.NoError(t, err)

	b := QiblaBearing(london)
	assert.InDelta(t, 118.9, b, 0.5)
}

func TestQiblaBearing_NearKaaba(t *testing.T) {
	// A point slightly east of the Kaaba should look almost due west.
	east := orb.Point{Kaaba.Lon() + 0.001, Kaaba.Lat()}
	b := QiblaBearing(east)
	assert.InDelta(t, 270, b, 1.0)

	// And slightly south should look almost due north.
	south := orb.Point{Kaaba.Lon(), Kaaba.Lat() - 0.001}
	b = QiblaBearing(south)
	assert.True(t, b < 1.0 || b > 359.0, "bearing %v not near north", b)
}

func TestBearing_MatchesOrb(t *testing.T) {
	points := []orb.Point{
		{-0.1278, 51.5074},   // London
		{139.6917, 35.6895},  // Tokyo
		{-74.0060, 40.7128},  // New York
		{151.2093, -33.8688}, // Sydney
	}
	for _, p := range points {
		got := Bearing(p, Kaaba)
		want := Normalize(orbgeo.Bearing(p, Kaaba))
		assert.InDelta(t, want, got, 0.01, "bearing from %v", p)
	}
}

func TestHaversineKm_SymmetryAndZero(t *testing.T) {
	a := orb.Point{-0.1278, 51.5074}
	b := orb.Point{39.826206, 21.4225}

	assert.Equal(t, HaversineKm(a, b), HaversineKm(b, a))
	assert.Zero(t, HaversineKm(a, a))
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	london := orb.Point{-0.1278, 51.5074}
	paris := orb.Point{2.3522, 48.8566}

	d := HaversineKm(london, paris)
	assert.InDelta(t, 344, d, 2)

	// Two decimal places only.
	assert.Equal(t, math.Round(d*100)/100, d)
}

func TestNewCoordinate_Validation(t *testing.T) {
	_, err := NewCoordinate(91, 0)
	assert.Error(t, err)
	_, err = NewCoordinate(-91, 0)
	assert.Error(t, err)
	_, err = NewCoordinate(0, 181)
	assert.Error(t, err)
	_, err = NewCoordinate(0, -181)
	assert.Error(t, err)

	p, err := NewCoordinate(21.4225, 39.826206)
	require.NoError(t, err)
	assert.Equal(t, 21.4225, p.Lat())
	assert.Equal(t, 39.826206, p.Lon())
}

func TestRelativeAngle_Normalization(t *testing.T) {
	for target := 0.0; target < 360; target += 45 {
		for heading := 0.0; heading < 360; heading += 45 {
			r := RelativeAngle(target, heading)
			assert.GreaterOrEqual(t, r, 0.0)
			assert.Less(t, r, 360.0)
		}
		assert.Zero(t, RelativeAngle(target, target))
	}
}

func TestAligned(t *testing.T) {
	assert.True(t, Aligned(0))
	assert.True(t, Aligned(4.9))
	assert.True(t, Aligned(355.1))
	assert.False(t, Aligned(5))
	assert.False(t, Aligned(355))
	assert.False(t, Aligned(180))
}
