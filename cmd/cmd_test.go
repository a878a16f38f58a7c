package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street-network/algo"
	"street-network/model"
)

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		in      string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{in: "33.12943,-80.12053", lat: 33.12943, lng: -80.12053},
		{in: " 33.1 , -80.2 ", lat: 33.1, lng: -80.2},
		{in: "33.1", wantErr: true},
		{in: "abc,-80", wantErr: true},
		{in: "33,xyz", wantErr: true},
		{in: "95,-80", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lat, lng, err := parseLatLng(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, lat)
			assert.Equal(t, tt.lng, lng)
		})
	}
}

func TestBuildOptions(t *testing.T) {
	cfg := &model.Config{NetworkType: "walk", Network: model.NetworkConfig{Simplify: true, RetainAll: true}}
	opts := buildOptions(cfg)
	assert.Equal(t, "walk", opts.NetworkType)
	assert.True(t, opts.Simplify)
	assert.True(t, opts.RetainAll)
	assert.False(t, opts.Bidirectional)
}

func TestPrintConversions(t *testing.T) {
	g := algo.NewGraph()
	g.AddNode(&model.Node{ID: 1, X: -80, Y: 33})
	g.AddNode(&model.Node{ID: 2, X: -79.999, Y: 33})
	g.AddEdge(&model.Edge{U: 1, V: 2, OSMIDs: []int64{10}, Length: 93})
	g.AddEdge(&model.Edge{U: 2, V: 1, OSMIDs: []int64{10}, Length: 93})

	assert.NoError(t, printConversions(g))
	assert.Error(t, printConversions(algo.NewGraph()))
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"graph", "stats", "route", "centrality", "stores", "export", "import", "serve"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
