package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/utils"
)

func TestProjectGraph(t *testing.T) {
	g := simplifiedGraph(t)

	p, err := ProjectGraph(g, "")
	require.NoError(t, err)
	assert.Equal(t, "EPSG:32617", p.CRS)
	assert.True(t, p.IsProjected())
	assert.False(t, g.IsProjected(), "原图不变")

	n := p.Nodes[1]
	assert.Equal(t, -80.0, n.Lon)
	assert.Equal(t, 33.0, n.Lat)
	assert.Greater(t, n.X, 100000.0)
	assert.Greater(t, n.Y, 3000000.0)

	// 投影后的直线距离与大圆距离接近
	want := utils.GreatCircle(33.0, -79.998, 33.001, -79.998)
	assert.InEpsilon(t, want, p.NodeDistance(3, 4), 0.001)

	merged := p.EdgesBetween(1, 3)[0]
	assert.InDelta(t, n.X, merged.Geometry[0].X(), 1e-6)

	back, err := ProjectGraph(p, utils.CRSWGS84)
	require.NoError(t, err)
	assert.InDelta(t, -80.0, back.Nodes[1].X, 1e-7)
	assert.InDelta(t, 33.0, back.Nodes[1].Y, 1e-7)
}

func TestProjectGraph_Errors(t *testing.T) {
	_, err := ProjectGraph(NewGraph(), "")
	assert.ErrorIs(t, err, ErrEmptyGraph)

	_, err = ProjectGraph(simplifiedGraph(t), "EPSG:2263")
	assert.Error(t, err)
}

func TestNodesConvexHullArea(t *testing.T) {
	g := simplifiedGraph(t)
	_, err := NodesConvexHullArea(g)
	assert.ErrorIs(t, err, ErrNotProjected)

	p, err := ProjectGraph(g, "")
	require.NoError(t, err)
	area, err := NodesConvexHullArea(p)
	require.NoError(t, err)

	// 直角三角形 1-3-4
	want := 0.5 * utils.GreatCircle(33.0, -80.0, 33.0, -79.998) * utils.GreatCircle(33.0, -79.998, 33.001, -79.998)
	assert.InEpsilon(t, want, area, 0.01)
}
