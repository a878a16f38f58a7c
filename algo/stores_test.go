package algo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/model"
)

func walmart(kind string, id int64, g orb.Geometry) model.Feature {
	return model.Feature{
		ElementType: kind,
		ID:          id,
		Tags:        map[string]string{"brand": "Walmart", "shop": "supermarket"},
		Geometry:    g,
	}
}

func TestDedupeFeatures(t *testing.T) {
	features := []model.Feature{
		walmart("node", 1, orb.Point{-80.0, 33.0}),
		// 同一门店的建筑轮廓，距离约 100 米
		walmart("way", 2, orbBox(-79.9991, 32.9999, -79.9989, 33.0001)),
		walmart("node", 3, orb.Point{-79.9, 33.1}),
		walmart("way", 4, orb.LineString{{-80, 33}, {-79.99, 33}}),
	}

	unique, labels, err := DedupeFeatures(features, 500, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, labels)
	require.Len(t, unique, 2)

	assert.Equal(t, int64(1), unique[0].ID)
	assert.Equal(t, 0, unique[0].Cluster)
	p, ok := unique[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, -80.0, p.Lon(), 1e-9)
	assert.InDelta(t, 33.0, p.Lat(), 1e-9)

	assert.Equal(t, int64(3), unique[1].ID)
	assert.Equal(t, "Walmart", unique[1].Name())

	// 原始要素不被修改
	unique[0].Tags["brand"] = "changed"
	assert.Equal(t, "Walmart", features[0].Tags["brand"])
}

func TestDedupeFeatures_PolygonCentroid(t *testing.T) {
	features := []model.Feature{walmart("way", 2, orbBox(-79.9991, 32.9999, -79.9989, 33.0001))}
	unique, _, err := DedupeFeatures(features, 500, 1)
	require.NoError(t, err)
	require.Len(t, unique, 1)

	p := unique[0].Geometry.(orb.Point)
	assert.InDelta(t, -79.999, p.Lon(), 1e-6)
	assert.InDelta(t, 33.0, p.Lat(), 1e-6)
}

func TestDedupeFeatures_NoiseKept(t *testing.T) {
	features := []model.Feature{
		walmart("node", 1, orb.Point{-80.0, 33.0}),
		walmart("node", 2, orb.Point{-79.0, 33.0}),
	}
	unique, labels, err := DedupeFeatures(features, 500, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{Noise, Noise}, labels)
	assert.Len(t, unique, 2)
}

func TestDedupeFeatures_SkipsMultiPolygon(t *testing.T) {
	box := orbBox(-79.9991, 32.9999, -79.9989, 33.0001)
	features := []model.Feature{
		walmart("relation", 9, orb.MultiPolygon{box}),
		walmart("node", 1, orb.Point{-80.0, 33.0}),
	}
	unique, labels, err := DedupeFeatures(features, 500, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, labels)
	require.Len(t, unique, 1)
	assert.Equal(t, int64(1), unique[0].ID)

	unique, labels, err = DedupeFeatures(features[:1], 500, 1)
	require.NoError(t, err)
	assert.Empty(t, unique)
	assert.Empty(t, labels)
}

func TestDedupeFeatures_Empty(t *testing.T) {
	unique, labels, err := DedupeFeatures(nil, 500, 1)
	require.NoError(t, err)
	assert.Empty(t, unique)
	assert.Empty(t, labels)
}

func TestGeometryReport(t *testing.T) {
	features := []model.Feature{
		walmart("node", 1, orb.Point{-80.0, 33.0}),
		walmart("way", 2, orb.Polygon{}),
		walmart("relation", 3, nil),
	}
	r := GeometryReport(features)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 1, r.Null)
	assert.Equal(t, 2, r.NonNull)
	assert.Equal(t, 1, r.Empty)
	assert.Equal(t, 1, r.ByType["Point"])
	assert.Equal(t, 1, r.ByType["Polygon"])
}
