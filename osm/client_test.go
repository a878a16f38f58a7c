package osm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"street-network/model"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nominatimResponse = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"display_name": "a node"},
     "geometry": {"type": "Point", "coordinates": [-80.05, 33.05]}},
    {"type": "Feature", "properties": {"display_name": "Test County"},
     "geometry": {"type": "Polygon", "coordinates": [[[-80.1, 33.0], [-80.0, 33.0], [-80.0, 33.1], [-80.1, 33.1], [-80.1, 33.0]]]}}
  ]
}`

const overpassResponse = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="Overpass API">
  <node id="1" lat="33.05" lon="-80.05">
    <tag k="brand" v="Walmart"/>
    <tag k="name" v="Walmart Supercenter"/>
  </node>
  <node id="2" lat="33.06" lon="-80.06"/>
  <node id="3" lat="33.06" lon="-80.05"/>
  <node id="4" lat="33.07" lon="-80.05"/>
  <node id="5" lat="33.5" lon="-80.5">
    <tag k="brand" v="Walmart"/>
  </node>
  <way id="10">
    <nd ref="2"/><nd ref="3"/><nd ref="4"/><nd ref="2"/>
    <tag k="brand" v="Walmart"/>
    <tag k="building" v="retail"/>
  </way>
</osm>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(model.OSMConfig{
		OverpassURL:  srv.URL + "/api/interpreter",
		NominatimURL: srv.URL + "/",
		UserAgent:    "street-network-test",
		Timeout:      5 * time.Second,
		MaxRetries:   3,
	})
	require.NoError(t, err)
	c.Backoff = time.Millisecond
	return c
}

func routes(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/search"):
		io.WriteString(w, nominatimResponse)
	case r.URL.Path == "/api/interpreter":
		io.WriteString(w, overpassResponse)
	default:
		http.NotFound(w, r)
	}
}

func TestGeocode(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, "street-network-test", r.Header.Get("User-Agent"))
		routes(w, r)
	})

	g, err := c.Geocode(context.Background(), "Test County")
	require.NoError(t, err)

	poly, ok := g.(orb.Polygon)
	require.True(t, ok, "expected polygon, got %T", g)
	assert.Len(t, poly[0], 5)
	assert.Equal(t, "Test County", gotQuery.Get("q"))
	assert.Equal(t, "geojson", gotQuery.Get("format"))
}

func TestGeocode_NoPolygon(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}]}`)
	})

	_, err := c.Geocode(context.Background(), "Somewhere")
	assert.ErrorIs(t, err, ErrNotPolygon)
}

func TestGeocode_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"type":"FeatureCollection","features":[]}`)
	})

	_, err := c.Geocode(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestOverpass_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "[out:xml];node(1);out;", r.PostForm.Get("data"))
		io.WriteString(w, overpassResponse)
	})

	data, err := c.Overpass(context.Background(), "[out:xml];node(1);out;")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, data.Nodes, 5)
	assert.Len(t, data.Ways, 1)
	assert.Len(t, data.Ways[0].Nodes, 4)
}

func TestOverpass_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Overpass(context.Background(), "bad query")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOverpass_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.Backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Overpass(ctx, "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCache(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		routes(w, r)
	})
	c.CacheDir = t.TempDir()

	for i := 0; i < 2; i++ {
		_, err := c.Overpass(context.Background(), "cached query")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetCacheDir(t *testing.T) {
	t.Setenv("STREETNET_CACHE_DIR", "/tmp/streetnet-cache")
	dir, err := GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/streetnet-cache", dir)
}
