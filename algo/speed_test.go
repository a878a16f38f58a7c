package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/model"
)

func TestCleanMaxSpeed(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"50", 50, true},
		{"50 km/h", 50, true},
		{"50kph", 50, true},
		{"30 mph", 48.3, true},
		{"40;60", 50, true},
		{"30 mph;50", (48.3 + 50) / 2, true},
		{"12,5", 12.5, true},
		{"none", 0, false},
		{"signals", 0, false},
		{"40;walk", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := CleanMaxSpeed(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestAddEdgeSpeeds(t *testing.T) {
	g := sampleGraph(t)
	require.NoError(t, AddEdgeSpeeds(g, nil, 0))

	assert.InDelta(t, 48.3, g.EdgesBetween(1, 2)[0].SpeedKPH, 1e-9)
	assert.InDelta(t, 50.0, g.EdgesBetween(3, 4)[0].SpeedKPH, 1e-9)
	// service 没有限速数据，使用 residential 与 primary 均值的平均
	assert.InDelta(t, (48.3+50)/2, g.EdgesBetween(5, 6)[0].SpeedKPH, 1e-9)

	require.NoError(t, AddEdgeSpeeds(g, map[string]float64{"service": 20}, 0))
	assert.Equal(t, 20.0, g.EdgesBetween(5, 6)[0].SpeedKPH)

	require.NoError(t, AddEdgeSpeeds(g, nil, 25))
	assert.Equal(t, 25.0, g.EdgesBetween(5, 6)[0].SpeedKPH)
}

func TestAddEdgeSpeeds_TypeMean(t *testing.T) {
	g := NewGraph()
	for id := int64(1); id <= 3; id++ {
		g.AddNode(&model.Node{ID: id})
	}
	g.AddEdge(&model.Edge{U: 1, V: 2, Highway: []string{"primary"}, MaxSpeed: []string{"60"}})
	g.AddEdge(&model.Edge{U: 2, V: 3, Highway: []string{"primary"}})

	require.NoError(t, AddEdgeSpeeds(g, nil, 0))
	assert.Equal(t, 60.0, g.EdgesBetween(2, 3)[0].SpeedKPH)
}

func TestAddEdgeSpeeds_UnknownType(t *testing.T) {
	build := func() *Graph {
		g := NewGraph()
		for id := int64(1); id <= 6; id++ {
			g.AddNode(&model.Node{ID: id})
		}
		for v := int64(2); v <= 4; v++ {
			g.AddEdge(&model.Edge{U: 1, V: v, Highway: []string{"residential"}, MaxSpeed: []string{"30"}})
		}
		g.AddEdge(&model.Edge{U: 1, V: 5, Highway: []string{"primary"}, MaxSpeed: []string{"90"}})
		g.AddEdge(&model.Edge{U: 5, V: 6, Highway: []string{"track"}})
		return g
	}

	g := build()
	require.NoError(t, AddEdgeSpeeds(g, nil, 0))
	// (30 + 90) / 2，而不是按边平均的 45
	assert.InDelta(t, 60.0, g.EdgesBetween(5, 6)[0].SpeedKPH, 1e-9)

	g = build()
	require.NoError(t, AddEdgeSpeeds(g, map[string]float64{"motorway": 120}, 0))
	assert.InDelta(t, 80.0, g.EdgesBetween(5, 6)[0].SpeedKPH, 1e-9)
}

func TestAddEdgeSpeeds_NoData(t *testing.T) {
	g := chain()
	assert.ErrorIs(t, AddEdgeSpeeds(g, nil, 0), ErrNoSpeeds)
	require.NoError(t, AddEdgeSpeeds(g, nil, 36))
	assert.Equal(t, 36.0, g.Edges()[0].SpeedKPH)
}

func TestAddEdgeTravelTimes(t *testing.T) {
	g := chain()
	assert.Error(t, AddEdgeTravelTimes(g))

	for _, e := range g.Edges() {
		e.Length = 100
	}
	require.NoError(t, AddEdgeSpeeds(g, nil, 36))
	require.NoError(t, AddEdgeTravelTimes(g))
	// 36 km/h = 10 m/s
	assert.InDelta(t, 10.0, g.Edges()[0].TravelTime, 1e-9)
}
