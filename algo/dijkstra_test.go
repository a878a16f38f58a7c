package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/model"
)

func TestShortestPath(t *testing.T) {
	g := simplifiedGraph(t)

	path, err := g.ShortestPath(1, 4, WeightLength)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4}, path)

	// 3 -> 4 单行
	_, err = g.ShortestPath(4, 1, WeightLength)
	assert.ErrorIs(t, err, ErrNoPath)

	path, err = g.ShortestPath(3, 3, WeightLength)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, path)

	_, err = g.ShortestPath(1, 999, WeightLength)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = g.ShortestPath(1, 4, "width")
	assert.Error(t, err)
}

// diamond 1 -> 2 -> 4 较短，1 -> 3 -> 4 较快
func diamond() *Graph {
	g := NewGraph()
	g.CRS = "EPSG:32617"
	for id := int64(1); id <= 4; id++ {
		g.AddNode(&model.Node{ID: id})
	}
	g.AddEdge(&model.Edge{U: 1, V: 2, Length: 100, TravelTime: 20})
	g.AddEdge(&model.Edge{U: 2, V: 4, Length: 100, TravelTime: 20})
	g.AddEdge(&model.Edge{U: 1, V: 3, Length: 150, TravelTime: 10})
	g.AddEdge(&model.Edge{U: 3, V: 4, Length: 150, TravelTime: 10})
	return g
}

func TestShortestPath_Weights(t *testing.T) {
	g := diamond()

	byLength, err := g.ShortestPath(1, 4, WeightLength)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4}, byLength)

	byTime, err := g.ShortestPath(1, 4, WeightTravelTime)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4}, byTime)
}

func TestShortestPath_Undirected(t *testing.T) {
	g := diamond()
	g.Directed = false

	path, err := g.ShortestPath(4, 1, WeightLength)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 2, 1}, path)
}

func TestRouteEdges_ParallelEdges(t *testing.T) {
	g := NewGraph()
	g.AddNode(&model.Node{ID: 1})
	g.AddNode(&model.Node{ID: 2})
	g.AddEdge(&model.Edge{U: 1, V: 2, Length: 10, TravelTime: 1})
	g.AddEdge(&model.Edge{U: 1, V: 2, Length: 5, TravelTime: 3})

	edges, err := g.RouteEdges([]int64{1, 2}, WeightLength)
	require.NoError(t, err)
	assert.Equal(t, 1, edges[0].Key)

	edges, err = g.RouteEdges([]int64{1, 2}, WeightTravelTime)
	require.NoError(t, err)
	assert.Equal(t, 0, edges[0].Key)

	length, err := g.RouteLength([]int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 5.0, length)

	_, err = g.RouteLength([]int64{2, 1})
	assert.Error(t, err)
}

func TestRoute(t *testing.T) {
	g := diamond()

	result, err := g.Route(1, 4, WeightTravelTime)
	require.NoError(t, err)
	assert.Equal(t, 20.0, result.Weight)
	assert.Equal(t, 300.0, result.Length)
	assert.Equal(t, 20.0, result.TravelTime)
	require.Len(t, result.Segments, 2)
	assert.Equal(t, int64(3), result.Segments[0].To)

	text := g.FormatPath(result)
	assert.Contains(t, text, "300.00 米")
	assert.Contains(t, text, "(无名道路)")
	assert.Equal(t, "未找到路径", g.FormatPath(PathResult{}))
}

func TestWeightFunc_NegativeWeight(t *testing.T) {
	g := diamond()
	g.EdgesBetween(1, 2)[0].Length = -1
	_, err := g.ShortestPath(1, 4, WeightLength)
	assert.Error(t, err)
}
