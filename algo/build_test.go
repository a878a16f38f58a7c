package algo

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/model"
	"street-network/utils"
)

// sampleOSM 一条双向住宅街 1-2-3，一条单行主干道 3->4，以及孤立的 5-6
func sampleOSM() *osm.OSM {
	return &osm.OSM{
		Nodes: osm.Nodes{
			{ID: 1, Lon: -80.000, Lat: 33.000},
			{ID: 2, Lon: -79.999, Lat: 33.000},
			{ID: 3, Lon: -79.998, Lat: 33.000},
			{ID: 4, Lon: -79.998, Lat: 33.001},
			{ID: 5, Lon: -79.990, Lat: 33.010},
			{ID: 6, Lon: -79.989, Lat: 33.010},
		},
		Ways: osm.Ways{
			{
				ID:    100,
				Nodes: osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}},
				Tags: osm.Tags{
					{Key: "highway", Value: "residential"},
					{Key: "name", Value: "Main Street"},
					{Key: "maxspeed", Value: "30 mph"},
				},
			},
			{
				ID:    101,
				Nodes: osm.WayNodes{{ID: 3}, {ID: 4}},
				Tags: osm.Tags{
					{Key: "highway", Value: "primary"},
					{Key: "oneway", Value: "yes"},
					{Key: "maxspeed", Value: "50"},
				},
			},
			{
				ID:    102,
				Nodes: osm.WayNodes{{ID: 5}, {ID: 6}},
				Tags:  osm.Tags{{Key: "highway", Value: "service"}},
			},
		},
	}
}

func sampleGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := FromOSM(sampleOSM(), BuildOptions{NetworkType: "drive"})
	require.NoError(t, err)
	return g
}

// simplifiedGraph 最大连通分量并简化后的样例图: 1 <-> 3 -> 4
func simplifiedGraph(t *testing.T) *Graph {
	t.Helper()
	g := LargestComponent(sampleGraph(t), false)
	require.NoError(t, Simplify(g))
	SetStreetCounts(g)
	return g
}

func TestFromOSM(t *testing.T) {
	g := sampleGraph(t)

	assert.Len(t, g.Nodes, 6)
	assert.Equal(t, 7, g.NumEdges())
	assert.Len(t, g.EdgesBetween(3, 4), 1)
	assert.Empty(t, g.EdgesBetween(4, 3))

	back := g.EdgesBetween(2, 1)
	require.Len(t, back, 1)
	assert.Equal(t, []bool{true}, back[0].Reversed)
	assert.Equal(t, []int64{100}, back[0].OSMIDs)
	assert.Equal(t, []string{"Main Street"}, back[0].Name)
	assert.False(t, back[0].Oneway)

	oneway := g.EdgesBetween(3, 4)[0]
	assert.True(t, oneway.Oneway)
	assert.Equal(t, []bool{false}, oneway.Reversed)

	want := utils.GreatCircle(33.0, -80.0, 33.0, -79.999)
	assert.InDelta(t, want, g.EdgesBetween(1, 2)[0].Length, 1e-6)
}

func TestFromOSM_ReversedOneway(t *testing.T) {
	data := sampleOSM()
	data.Ways[1].Tags = osm.Tags{{Key: "highway", Value: "primary"}, {Key: "oneway", Value: "-1"}}

	g, err := FromOSM(data, BuildOptions{})
	require.NoError(t, err)
	assert.Empty(t, g.EdgesBetween(3, 4))
	require.Len(t, g.EdgesBetween(4, 3), 1)
	assert.Equal(t, []bool{false}, g.EdgesBetween(4, 3)[0].Reversed)
}

func TestFromOSM_Bidirectional(t *testing.T) {
	g, err := FromOSM(sampleOSM(), BuildOptions{Bidirectional: true})
	require.NoError(t, err)
	assert.Len(t, g.EdgesBetween(4, 3), 1)

	walk, err := FromOSM(sampleOSM(), BuildOptions{NetworkType: "walk"})
	require.NoError(t, err)
	assert.Equal(t, 8, walk.NumEdges())
}

func TestFromOSM_Roundabout(t *testing.T) {
	data := sampleOSM()
	data.Ways[0].Tags = osm.Tags{{Key: "highway", Value: "residential"}, {Key: "junction", Value: "roundabout"}}

	g, err := FromOSM(data, BuildOptions{})
	require.NoError(t, err)
	assert.Empty(t, g.EdgesBetween(2, 1))
}

func TestFromOSM_Empty(t *testing.T) {
	_, err := FromOSM(&osm.OSM{}, BuildOptions{})
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestLargestComponent(t *testing.T) {
	g := LargestComponent(sampleGraph(t), false)
	assert.Len(t, g.Nodes, 4)
	assert.NotContains(t, g.Nodes, int64(5))
	assert.Equal(t, 5, g.NumEdges())

	// 强连通: 3 -> 4 单行，4 单独成分量
	s := LargestComponent(sampleGraph(t), true)
	assert.Len(t, s.Nodes, 3)
	assert.NotContains(t, s.Nodes, int64(4))
}

func TestTruncatePolygon(t *testing.T) {
	g := sampleGraph(t)
	boundary := orbBox(-80.0005, 32.9995, -79.9975, 33.0015)

	h := TruncatePolygon(g, boundary)
	assert.Len(t, h.Nodes, 4)
	assert.Len(t, g.Nodes, 6, "原图不变")
}

func TestSimplify(t *testing.T) {
	g := simplifiedGraph(t)

	assert.ElementsMatch(t, []int64{1, 3, 4}, g.NodeIDs())
	assert.Equal(t, 3, g.NumEdges())
	assert.True(t, g.Simplified)

	merged := g.EdgesBetween(1, 3)
	require.Len(t, merged, 1)
	assert.Len(t, merged[0].Geometry, 3)
	want := utils.GreatCircle(33.0, -80.0, 33.0, -79.999) + utils.GreatCircle(33.0, -79.999, 33.0, -79.998)
	assert.InDelta(t, want, merged[0].Length, 1e-6)
	assert.Equal(t, []int64{100}, merged[0].OSMIDs)

	assert.ErrorIs(t, Simplify(g), ErrAlreadySimplified)
}

func TestCountStreetsPerNode(t *testing.T) {
	g := LargestComponent(sampleGraph(t), false)
	counts := CountStreetsPerNode(g)
	assert.Equal(t, map[int64]int{1: 1, 2: 2, 3: 2, 4: 1}, counts)

	s := simplifiedGraph(t)
	assert.Equal(t, 1, s.Nodes[1].StreetCount)
	assert.Equal(t, 2, s.Nodes[3].StreetCount)
}

func TestCountStreetsPerNode_SelfLoopAndParallel(t *testing.T) {
	g := NewGraph()
	g.AddNode(&model.Node{ID: 1})
	g.AddNode(&model.Node{ID: 2})
	g.AddEdge(&model.Edge{U: 1, V: 2})
	g.AddEdge(&model.Edge{U: 1, V: 2})
	g.AddEdge(&model.Edge{U: 2, V: 1})
	g.AddEdge(&model.Edge{U: 2, V: 2})
	g.AddEdge(&model.Edge{U: 2, V: 2})

	counts := CountStreetsPerNode(g)
	assert.Equal(t, 2, counts[1])
	assert.Equal(t, 4, counts[2])
}

func TestAddEdge_Keys(t *testing.T) {
	g := NewGraph()
	g.AddNode(&model.Node{ID: 1})
	g.AddNode(&model.Node{ID: 2})
	assert.Equal(t, 0, g.AddEdge(&model.Edge{U: 1, V: 2}))
	assert.Equal(t, 1, g.AddEdge(&model.Edge{U: 1, V: 2}))
	assert.Equal(t, 0, g.AddEdge(&model.Edge{U: 2, V: 1}))
	assert.Equal(t, []int64{2}, g.Successors(1))
	assert.Equal(t, []int64{2}, g.Predecessors(1))
	assert.Equal(t, 2, g.OutDegree(1))
}
