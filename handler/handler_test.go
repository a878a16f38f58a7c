package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/algo"
	"street-network/model"
)

// testGraph 1 <-> 2 为双向道路，2 -> 3 为单行道
func testGraph() *algo.Graph {
	g := algo.NewGraph()
	g.AddNode(&model.Node{ID: 1, X: -80, Y: 33, StreetCount: 1})
	g.AddNode(&model.Node{ID: 2, X: -79.999, Y: 33, StreetCount: 2})
	g.AddNode(&model.Node{ID: 3, X: -79.998, Y: 33.001, StreetCount: 1})

	street := model.Edge{OSMIDs: []int64{100}, Length: 93, TravelTime: 10, Name: []string{"Main Street"}, Highway: []string{"residential"}}
	fwd, back := street.Clone(), street.Clone()
	fwd.U, fwd.V = 1, 2
	back.U, back.V = 2, 1
	g.AddEdge(fwd)
	g.AddEdge(back)
	g.AddEdge(&model.Edge{U: 2, V: 3, OSMIDs: []int64{101}, Length: 140, TravelTime: 12, Oneway: true, Name: []string{"Oak Avenue"}})
	return g
}

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, SetGraph(testGraph()))
	Features = []model.Feature{
		{ElementType: "node", ID: 7, Tags: map[string]string{"brand": "Walmart"}, Geometry: orb.Point{-79.9985, 33.0005}},
	}
	t.Cleanup(func() {
		Graph, index, Features = nil, nil, nil
	})
	r := gin.New()
	SetupRoutes(r)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPingAndCORS(t *testing.T) {
	r := setup(t)

	w := doJSON(r, http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = doJSON(r, http.MethodOptions, "/api/route", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestFindRoute(t *testing.T) {
	r := setup(t)

	t.Run("by id", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/route", gin.H{"orig_id": 1, "dest_id": 3}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp RouteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Found)
		require.Len(t, resp.Path, 3)
		assert.Equal(t, int64(3), resp.Path[2].ID)
		assert.InDelta(t, 233, resp.Length, 1e-9)
		assert.InDelta(t, 22, resp.TravelTime, 1e-9)
		assert.Greater(t, resp.CrowFlies, 100.0)
		require.Len(t, resp.Segments, 2)
		assert.Equal(t, []string{"Oak Avenue"}, resp.Segments[1].Name)
	})

	t.Run("by coordinates", func(t *testing.T) {
		body := gin.H{"orig_lat": 33.00001, "orig_lng": -80.00001, "dest_lat": 33.0009, "dest_lng": -79.9981, "weight": "travel_time"}
		w := doJSON(r, http.MethodPost, "/api/route", body, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp RouteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.True(t, resp.Found)
		assert.Equal(t, int64(1), resp.Path[0].ID)
		assert.Equal(t, int64(3), resp.Path[len(resp.Path)-1].ID)
	})

	t.Run("no path against oneway", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/route", gin.H{"orig_id": 3, "dest_id": 1}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp RouteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Found)
	})

	t.Run("unknown node", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/route", gin.H{"orig_id": 1, "dest_id": 99}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad weight", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/route", gin.H{"orig_id": 1, "dest_id": 3, "weight": "speed"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGraphNotLoaded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Graph, index = nil, nil
	r := gin.New()
	SetupRoutes(r)

	w := doJSON(r, http.MethodGet, "/api/nodes", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNodes(t *testing.T) {
	r := setup(t)

	w := doJSON(r, http.MethodGet, "/api/nodes", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int        `json:"count"`
		Nodes []NodeInfo `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, 33.0, list.Nodes[0].Lat)
	assert.Equal(t, -80.0, list.Nodes[0].Lng)

	w = doJSON(r, http.MethodGet, "/api/nodes/2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var node NodeInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
	assert.Equal(t, []string{"Main Street", "Oak Avenue"}, node.Streets)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/nodes/42", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/nodes/abc", nil, nil).Code)
}

func TestSearchNodes(t *testing.T) {
	r := setup(t)

	w := doJSON(r, http.MethodGet, "/api/nodes/search?q=oak", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count   int        `json:"count"`
		Results []NodeInfo `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, int64(2), resp.Results[0].ID)
	assert.Equal(t, int64(3), resp.Results[1].ID)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/nodes/search", nil, nil).Code)
}

func TestStatsAndStores(t *testing.T) {
	r := setup(t)

	w := doJSON(r, http.MethodGet, "/api/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats algo.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.N)
	assert.Equal(t, 3, stats.M)
	require.NotNil(t, stats.NodeDensityKm)

	w = doJSON(r, http.MethodGet, "/api/stores", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"brand":"Walmart"`)
	assert.Contains(t, w.Body.String(), `"id":"node/7"`)
}

func TestRegisterLoginAndAuth(t *testing.T) {
	r := setup(t)
	Configure(model.ServerConfig{JWTSecret: "test-secret"})

	w := doJSON(r, http.MethodPost, "/api/register", gin.H{"username": "alice", "password": "secret123"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/api/register", gin.H{"username": "alice", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/api/register", gin.H{"username": "bob", "password": "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	// 未登录
	w = doJSON(r, http.MethodPost, "/api/networks", gin.H{"place": "Somewhere"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/networks", gin.H{"place": "Somewhere"}, map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 认证通过，但没有数据库
	w = doJSON(r, http.MethodPost, "/api/networks", gin.H{"place": "Somewhere"}, map[string]string{"Authorization": "Bearer " + login.Token})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
