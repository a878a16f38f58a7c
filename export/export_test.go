package export

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/algo"
	"street-network/model"
)

func testGraph() *algo.Graph {
	g := algo.NewGraph()
	g.Name = "Test Town"
	g.Simplified = true
	g.AddNode(&model.Node{ID: 1, X: -80.0, Y: 33.0, StreetCount: 1})
	g.AddNode(&model.Node{ID: 2, X: -79.999, Y: 33.0, StreetCount: 3, Highway: "traffic_signals"})
	g.AddNode(&model.Node{ID: 3, X: -79.999, Y: 33.001, StreetCount: 1})
	g.AddEdge(&model.Edge{
		U: 1, V: 2, OSMIDs: []int64{100, 101}, Length: 93.3,
		Highway: []string{"residential"}, Name: []string{"Main Street", "Oak Avenue"},
		Reversed: []bool{false}, SpeedKPH: 48.3, TravelTime: 6.95,
		Geometry: orb.LineString{{-80.0, 33.0}, {-79.9995, 33.0001}, {-79.999, 33.0}},
	})
	g.AddEdge(&model.Edge{
		U: 2, V: 3, OSMIDs: []int64{102}, Length: 111.2, Oneway: true,
		Highway: []string{"primary"}, MaxSpeed: []string{"50"}, Reversed: []bool{false, true},
	})
	return g
}

func TestGraphMLRoundTrip(t *testing.T) {
	g := testGraph()
	path := filepath.Join(t.TempDir(), "graph.graphml")
	require.NoError(t, SaveGraphML(g, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `attr.name="street_count"`)
	assert.Contains(t, string(raw), `edgedefault="directed"`)
	assert.Contains(t, string(raw), "LINESTRING")

	h, err := LoadGraphML(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Town", h.Name)
	assert.True(t, h.Simplified)
	assert.True(t, h.Directed)
	assert.Equal(t, g.CRS, h.CRS)
	assert.Equal(t, g.NodeIDs(), h.NodeIDs())
	assert.Equal(t, 3, h.Nodes[2].StreetCount)
	assert.Equal(t, "traffic_signals", h.Nodes[2].Highway)

	e := h.EdgesBetween(1, 2)[0]
	assert.Equal(t, []int64{100, 101}, e.OSMIDs)
	assert.Equal(t, []string{"Main Street", "Oak Avenue"}, e.Name)
	assert.Equal(t, 93.3, e.Length)
	assert.Equal(t, 48.3, e.SpeedKPH)
	assert.Len(t, e.Geometry, 3)

	e = h.EdgesBetween(2, 3)[0]
	assert.True(t, e.Oneway)
	assert.Equal(t, []bool{false, true}, e.Reversed)
	assert.Equal(t, []string{"50"}, e.MaxSpeed)
	// 没有几何的边导出为直线
	assert.Len(t, e.Geometry, 2)
}

func TestGraphML_Undirected(t *testing.T) {
	u := algo.ToUndirected(testGraph())
	data, err := MarshalGraphML(u)
	require.NoError(t, err)
	h, err := UnmarshalGraphML(data)
	require.NoError(t, err)
	assert.False(t, h.Directed)
	assert.Equal(t, 2, h.NumEdges())
}

func TestLoadGraphML_Errors(t *testing.T) {
	_, err := LoadGraphML(filepath.Join(t.TempDir(), "missing.graphml"))
	assert.Error(t, err)

	_, err = UnmarshalGraphML([]byte("<graphml><graph><node id=\"abc\"/></graph></graphml>"))
	assert.Error(t, err)
}

func TestSaveGeoPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.gpkg")
	require.NoError(t, SaveGeoPackage(testGraph(), path))
	// 覆盖已有文件
	require.NoError(t, SaveGeoPackage(testGraph(), path))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count))
	assert.Equal(t, 3, count)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&count))
	assert.Equal(t, 2, count)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM gpkg_contents").Scan(&count))
	assert.Equal(t, 2, count)

	var appID int
	require.NoError(t, db.QueryRow("PRAGMA application_id").Scan(&appID))
	assert.Equal(t, gpkgApplicationID, appID)

	var blob []byte
	var name string
	require.NoError(t, db.QueryRow("SELECT geom, name FROM edges WHERE u = 1").Scan(&blob, &name))
	assert.Equal(t, `["Main Street","Oak Avenue"]`, name)
	geom, srs, err := ParseGPKGGeometry(blob)
	require.NoError(t, err)
	assert.Equal(t, 4326, srs)
	assert.Equal(t, orb.LineString{{-80.0, 33.0}, {-79.9995, 33.0001}, {-79.999, 33.0}}, geom)

	var speed sql.NullFloat64
	require.NoError(t, db.QueryRow("SELECT speed_kph FROM edges WHERE u = 2").Scan(&speed))
	assert.False(t, speed.Valid)
}

func TestSaveGeoPackage_BadCRS(t *testing.T) {
	g := testGraph()
	g.CRS = "+proj=longlat"
	assert.Error(t, SaveGeoPackage(g, filepath.Join(t.TempDir(), "x.gpkg")))
}

func TestParseGPKGGeometry_Invalid(t *testing.T) {
	_, _, err := ParseGPKGGeometry([]byte("nope"))
	assert.Error(t, err)
}

func TestGeoJSON(t *testing.T) {
	g := testGraph()

	nodes := NodesGeoJSON(g)
	require.Len(t, nodes.Features, 3)
	assert.Equal(t, "traffic_signals", nodes.Features[1].Properties["highway"])

	edges := EdgesGeoJSON(g)
	require.Len(t, edges.Features, 2)
	assert.Equal(t, "LineString", edges.Features[1].Geometry.GeoJSONType())
	assert.Len(t, edges.Features[1].Geometry.(orb.LineString), 2)

	features := FeaturesGeoJSON([]model.Feature{
		{ElementType: "node", ID: 7, Tags: map[string]string{"brand": "Walmart"}, Geometry: orb.Point{-80, 33}},
		{ElementType: "way", ID: 8},
	})
	require.Len(t, features.Features, 1)
	assert.Equal(t, "node/7", features.Features[0].ID)

	path := filepath.Join(t.TempDir(), "stores.geojson")
	require.NoError(t, SaveGeoJSON(path, features))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Walmart", fc.Features[0].Properties.MustString("brand"))
}
