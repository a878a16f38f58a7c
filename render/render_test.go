package render

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/algo"
	"street-network/model"
)

func testGraph() *algo.Graph {
	g := algo.NewGraph()
	g.CRS = "EPSG:32617"
	g.AddNode(&model.Node{ID: 1, X: 0, Y: 0})
	g.AddNode(&model.Node{ID: 2, X: 100, Y: 0})
	g.AddNode(&model.Node{ID: 3, X: 100, Y: 50})
	g.AddEdge(&model.Edge{U: 1, V: 2, Length: 100, Centrality: 0.2})
	g.AddEdge(&model.Edge{U: 2, V: 3, Length: 50, Centrality: 0.8,
		Geometry: orb.LineString{{100, 0}, {110, 25}, {100, 50}}})
	g.AddEdge(&model.Edge{U: 3, V: 1, Length: 120})
	return g
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#111111")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}, c)

	c, err = ParseColor("fff")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	c, err = ParseColor("#ff000080")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0x80}, c)

	_, err = ParseColor("red")
	assert.Error(t, err)
	_, err = ParseColor("#gggggg")
	assert.Error(t, err)
}

func TestColorMap(t *testing.T) {
	for _, name := range []string{"", "blackbody", "inferno", "extended-blackbody", "kindlmann", "extended-kindlmann", "bluered"} {
		_, err := ColorMap(name)
		assert.NoError(t, err, name)
	}
	_, err := ColorMap("rainbow")
	assert.Error(t, err)
}

func TestEdgeColorsByAttr(t *testing.T) {
	g := testGraph()

	colors, err := EdgeColorsByAttr(g, "length", "")
	require.NoError(t, err)
	require.Len(t, colors, 3)
	for _, c := range colors {
		assert.NotNil(t, c)
	}
	assert.NotEqual(t, colors[1], colors[2])

	// 没有通行时间数据
	colors, err = EdgeColorsByAttr(g, "travel_time", "")
	require.NoError(t, err)
	assert.Equal(t, []color.Color{nil, nil, nil}, colors)

	_, err = EdgeColorsByAttr(g, "width", "")
	assert.Error(t, err)
	_, err = EdgeColorsByAttr(g, "length", "rainbow")
	assert.Error(t, err)
}

func TestEdgeColorsByAttr_SingleValue(t *testing.T) {
	g := testGraph()
	for _, e := range g.Edges() {
		e.SpeedKPH = 50
	}
	colors, err := EdgeColorsByAttr(g, "speed_kph", "bluered")
	require.NoError(t, err)
	assert.Equal(t, colors[0], colors[2])
}

func TestPlotGraphAndSave(t *testing.T) {
	g := testGraph()
	opts, err := OptionsFromConfig(model.PlotConfig{
		BgColor: "#111111", EdgeColor: "#999999", EdgeWidth: 1,
		NodeColor: "#ffffff", NodeSize: 3,
	})
	require.NoError(t, err)

	colors, err := EdgeColorsByAttr(g, "edge_centrality", "")
	require.NoError(t, err)
	opts.EdgeColors = colors

	p, err := PlotGraph(g, opts)
	require.NoError(t, err)
	require.NoError(t, AddRoute(p, g, []int64{1, 2, 3}, color.NRGBA{R: 255, A: 255}, 3))
	require.NoError(t, AddPoints(p, []model.Feature{
		{ElementType: "node", ID: 1, Geometry: orb.Point{50, 10}},
		{ElementType: "way", ID: 2, Geometry: orb.LineString{{0, 0}, {1, 1}}},
	}, nil, 5, 0.5))

	dir := t.TempDir()
	height := AspectHeight(g, 20)
	assert.InDelta(t, 10.0, height, 1e-9)
	for _, name := range []string{"graph.png", "graph.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(p, path, 20, height))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Error(t, Save(p, filepath.Join(dir, "graph.txt"), 20, 10))
}

func TestPlotGraph_Errors(t *testing.T) {
	_, err := PlotGraph(algo.NewGraph(), Options{})
	assert.ErrorIs(t, err, algo.ErrEmptyGraph)

	_, err = PlotGraph(testGraph(), Options{EdgeColors: []color.Color{nil}})
	assert.Error(t, err)

	p, err := PlotGraph(testGraph(), Options{})
	require.NoError(t, err)
	assert.Error(t, AddRoute(p, testGraph(), []int64{1}, color.White, 1))
	assert.Error(t, AddRoute(p, testGraph(), []int64{2, 1}, color.White, 1))
}

func TestAspectHeight_Geographic(t *testing.T) {
	g := algo.NewGraph()
	g.AddNode(&model.Node{ID: 1, X: -80, Y: 60})
	g.AddNode(&model.Node{ID: 2, X: -79, Y: 60.5})
	want := 20 * 0.5 / math.Cos(60.25*math.Pi/180)
	assert.InDelta(t, want, AspectHeight(g, 20), 1e-9)
}
