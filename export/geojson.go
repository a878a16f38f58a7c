package export

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"street-network/algo"
	"street-network/model"
)

// NodesGeoJSON 节点图层
func NodesGeoJSON(g *algo.Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, id := range g.NodeIDs() {
		n := g.Nodes[id]
		f := geojson.NewFeature(orb.Point{n.X, n.Y})
		f.ID = n.ID
		f.Properties["osmid"] = n.ID
		f.Properties["street_count"] = n.StreetCount
		if n.Highway != "" {
			f.Properties["highway"] = n.Highway
		}
		if n.Ref != "" {
			f.Properties["ref"] = n.Ref
		}
		fc.Append(f)
	}
	return fc
}

// EdgesGeoJSON 边图层，几何缺失的边用两端点直线代替
func EdgesGeoJSON(g *algo.Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range g.Edges() {
		f := geojson.NewFeature(g.EdgeGeometry(e).Clone())
		f.Properties["u"] = e.U
		f.Properties["v"] = e.V
		f.Properties["key"] = e.Key
		f.Properties["osmid"] = e.OSMIDs
		f.Properties["length"] = e.Length
		f.Properties["oneway"] = e.Oneway
		f.Properties["reversed"] = e.Reversed
		for name, values := range map[string][]string{
			"highway": e.Highway, "name": e.Name, "maxspeed": e.MaxSpeed, "lanes": e.Lanes, "ref": e.Ref,
		} {
			if len(values) > 0 {
				f.Properties[name] = values
			}
		}
		if e.SpeedKPH > 0 {
			f.Properties["speed_kph"] = e.SpeedKPH
		}
		if e.TravelTime > 0 {
			f.Properties["travel_time"] = e.TravelTime
		}
		if e.Centrality > 0 {
			f.Properties["edge_centrality"] = e.Centrality
		}
		fc.Append(f)
	}
	return fc
}

// FeaturesGeoJSON 兴趣点图层，空几何的要素跳过
func FeaturesGeoJSON(features []model.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, ft := range features {
		if ft.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(ft.Geometry)
		f.ID = ft.Key()
		for k, v := range ft.Tags {
			f.Properties[k] = v
		}
		f.Properties["element_type"] = ft.ElementType
		f.Properties["osmid"] = ft.ID
		f.Properties["cluster"] = ft.Cluster
		fc.Append(f)
	}
	return fc
}

// SaveGeoJSON 保存 FeatureCollection
func SaveGeoJSON(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("编码 GeoJSON 失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}
