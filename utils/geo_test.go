package utils

import (
	"testing"

	"street-network/model"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestGreatCircle(t *testing.T) {
	t.Run("same point", func(t *testing.T) {
		assert.Equal(t, 0.0, GreatCircle(33.1, -80.0, 33.1, -80.0))
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		// 1° 纬度 = R * π / 180
		assert.InDelta(t, 111195.08, GreatCircle(0, 0, 1, 0), 0.01)
	})

	t.Run("antipodal points clamp", func(t *testing.T) {
		d := GreatCircle(0, 0, 0, 180)
		assert.InDelta(t, EarthRadiusMean*3.141592653589793, d, 1e-6)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := GreatCircle(33.0, -80.0, 33.2, -79.9)
		b := GreatCircle(33.2, -79.9, 33.0, -80.0)
		assert.InDelta(t, a, b, 1e-9)
	})
}

func TestHaversineDistance(t *testing.T) {
	p1 := model.Point{Lat: 33.0, Lng: -80.0}
	p2 := model.Point{Lat: 33.0, Lng: -80.01}
	assert.InDelta(t, GreatCircle(33.0, -80.0, 33.0, -80.01), HaversineDistance(p1, p2), 1e-9)
}

func TestLineLength(t *testing.T) {
	ls := orb.LineString{{0, 0}, {3, 4}, {3, 10}}
	assert.InDelta(t, 11.0, LineLength(ls, false), 1e-9)

	geo := orb.LineString{{0, 0}, {0, 1}, {0, 2}}
	assert.InDelta(t, GreatCircle(0, 0, 2, 0), LineLength(geo, true), 1e-6)
}

func TestConvexHull(t *testing.T) {
	pts := []orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}, {1, 0}, {0, 0}}
	ring := ConvexHull(pts)

	assert.True(t, ring.Closed())
	assert.Len(t, ring, 5)
	assert.InDelta(t, 4.0, HullArea(pts), 1e-9)

	assert.Equal(t, 0.0, HullArea([]orb.Point{{0, 0}, {1, 1}}))
	assert.Equal(t, 0.0, HullArea([]orb.Point{{0, 0}, {1, 1}, {2, 2}}))
}
