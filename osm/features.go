package osm

import (
	"context"
	"fmt"
	"log"
	"slices"

	"street-network/model"
	"street-network/utils"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
)

// QueryTimeout Overpass 服务端超时 (秒)
const QueryTimeout = 180

// matchTags 判断元素标签是否满足任一条件
func matchTags(tags osm.Tags, filter map[string][]string) bool {
	for k, values := range filter {
		v := tags.Find(k)
		if v == "" {
			continue
		}
		if len(values) == 0 {
			return true
		}
		for _, want := range values {
			if v == want {
				return true
			}
		}
	}
	return false
}

// nodeIndex 节点 ID -> 坐标
func nodeIndex(data *osm.OSM) map[osm.NodeID]orb.Point {
	idx := make(map[osm.NodeID]orb.Point, len(data.Nodes))
	for _, n := range data.Nodes {
		idx[n.ID] = orb.Point{n.Lon, n.Lat}
	}
	return idx
}

func wayNodeIDs(w *osm.Way) []osm.NodeID {
	ids := make([]osm.NodeID, 0, len(w.Nodes))
	for _, wn := range w.Nodes {
		ids = append(ids, wn.ID)
	}
	return ids
}

// coords 按节点序列取坐标，有缺失节点时返回 false
func coords(ids []osm.NodeID, idx map[osm.NodeID]orb.Point) ([]orb.Point, bool) {
	pts := make([]orb.Point, 0, len(ids))
	for _, id := range ids {
		p, ok := idx[id]
		if !ok {
			return nil, false
		}
		pts = append(pts, p)
	}
	return pts, true
}

// polygonKeys 闭合路径带这些标签时视为面
// exclude 中的取值仍按线处理，include 非空时只有其中的取值视为面
var polygonKeys = map[string]struct{ include, exclude []string }{
	"aeroway":          {exclude: []string{"taxiway"}},
	"amenity":          {},
	"boundary":         {},
	"building":         {},
	"building:part":    {},
	"craft":            {},
	"golf":             {},
	"healthcare":       {},
	"highway":          {include: []string{"services", "rest_area", "escape", "elevator"}},
	"historic":         {},
	"landuse":          {},
	"leisure":          {exclude: []string{"track", "slipway"}},
	"man_made":         {exclude: []string{"cutline", "embankment", "pipeline"}},
	"military":         {},
	"natural":          {exclude: []string{"coastline", "cliff", "ridge", "arete", "tree_row"}},
	"office":           {},
	"place":            {},
	"power":            {include: []string{"plant", "substation", "generator", "transformer"}},
	"public_transport": {},
	"railway":          {include: []string{"station", "turntable", "roundhouse", "platform"}},
	"shop":             {},
	"tourism":          {},
	"waterway":         {include: []string{"riverbank", "dock", "boatyard", "dam"}},
}

// isArea 根据 area 标签和面要素标签判断闭合路径是否为面
func isArea(tags osm.Tags) bool {
	switch tags.Find("area") {
	case "no":
		return false
	case "yes":
		return true
	}
	for _, t := range tags {
		rule, ok := polygonKeys[t.Key]
		if !ok || t.Value == "no" {
			continue
		}
		if len(rule.include) > 0 {
			if slices.Contains(rule.include, t.Value) {
				return true
			}
			continue
		}
		if !slices.Contains(rule.exclude, t.Value) {
			return true
		}
	}
	return false
}

// wayGeometry 带面要素标签的闭合路径为面，否则为线
func wayGeometry(w *osm.Way, idx map[osm.NodeID]orb.Point) orb.Geometry {
	ids := wayNodeIDs(w)
	pts, ok := coords(ids, idx)
	if !ok || len(pts) < 2 {
		return nil
	}
	closed := len(ids) >= 4 && ids[0] == ids[len(ids)-1]
	if closed && isArea(w.Tags) {
		return orb.Polygon{orb.Ring(pts)}
	}
	return orb.LineString(pts)
}

// stitchRings 将多段开放路径首尾相接拼成闭合环 (节点 ID 序列)
// 无法闭合的片段被丢弃
func stitchRings(segments [][]osm.NodeID) [][]osm.NodeID {
	var rings [][]osm.NodeID
	pending := make([][]osm.NodeID, 0, len(segments))
	for _, s := range segments {
		if len(s) < 2 {
			continue
		}
		if s[0] == s[len(s)-1] {
			rings = append(rings, s)
			continue
		}
		pending = append(pending, append([]osm.NodeID(nil), s...))
	}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		for current[0] != current[len(current)-1] {
			joined := false
			for i, s := range pending {
				head, tail := current[0], current[len(current)-1]
				switch {
				case s[0] == tail:
					current = append(current, s[1:]...)
				case s[len(s)-1] == tail:
					current = append(current, reversed(s)[1:]...)
				case s[len(s)-1] == head:
					current = append(append([]osm.NodeID(nil), s...), current[1:]...)
				case s[0] == head:
					current = append(reversed(s), current[1:]...)
				default:
					continue
				}
				pending = append(pending[:i], pending[i+1:]...)
				joined = true
				break
			}
			if !joined {
				break
			}
		}
		if len(current) >= 4 && current[0] == current[len(current)-1] {
			rings = append(rings, current)
		}
	}
	return rings
}

func reversed(ids []osm.NodeID) []osm.NodeID {
	out := make([]osm.NodeID, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// relationGeometry 组装 type=multipolygon 关系的几何
func relationGeometry(r *osm.Relation, ways map[osm.WayID]*osm.Way, idx map[osm.NodeID]orb.Point) orb.Geometry {
	var outer, inner [][]osm.NodeID
	for _, m := range r.Members {
		if m.Type != osm.TypeWay {
			continue
		}
		w, ok := ways[osm.WayID(m.Ref)]
		if !ok {
			continue
		}
		if m.Role == "inner" {
			inner = append(inner, wayNodeIDs(w))
		} else {
			outer = append(outer, wayNodeIDs(w))
		}
	}

	var mp orb.MultiPolygon
	for _, ids := range stitchRings(outer) {
		pts, ok := coords(ids, idx)
		if !ok {
			continue
		}
		mp = append(mp, orb.Polygon{orb.Ring(pts)})
	}
	if len(mp) == 0 {
		return nil
	}

	// 内环归属到包含其首点的外环
	for _, ids := range stitchRings(inner) {
		pts, ok := coords(ids, idx)
		if !ok {
			continue
		}
		for i := range mp {
			if planar.RingContains(mp[i][0], pts[0]) {
				mp[i] = append(mp[i], orb.Ring(pts))
				break
			}
		}
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

// BuildFeatures 将 Overpass 结果中满足标签条件的元素转换为要素
// 节点 -> Point，路径 -> Polygon/LineString，多边形关系 -> Polygon/MultiPolygon
// 缺少节点的元素保留为空几何
func BuildFeatures(data *osm.OSM, tags map[string][]string) []model.Feature {
	idx := nodeIndex(data)
	ways := make(map[osm.WayID]*osm.Way, len(data.Ways))
	for _, w := range data.Ways {
		ways[w.ID] = w
	}

	var features []model.Feature
	for _, n := range data.Nodes {
		if !matchTags(n.Tags, tags) {
			continue
		}
		features = append(features, model.Feature{
			ElementType: "node",
			ID:          int64(n.ID),
			Tags:        n.Tags.Map(),
			Geometry:    orb.Point{n.Lon, n.Lat},
		})
	}
	for _, w := range data.Ways {
		if !matchTags(w.Tags, tags) {
			continue
		}
		features = append(features, model.Feature{
			ElementType: "way",
			ID:          int64(w.ID),
			Tags:        w.Tags.Map(),
			Geometry:    wayGeometry(w, idx),
		})
	}
	for _, r := range data.Relations {
		if !matchTags(r.Tags, tags) {
			continue
		}
		if t := r.Tags.Find("type"); t != "multipolygon" && t != "boundary" {
			continue
		}
		features = append(features, model.Feature{
			ElementType: "relation",
			ID:          int64(r.ID),
			Tags:        r.Tags.Map(),
			Geometry:    relationGeometry(r, ways, idx),
		})
	}
	return features
}

// intersects 近似相交判断: 任一顶点在多边形内
func intersects(boundary, g orb.Geometry) bool {
	if g == nil {
		return false
	}
	hit := false
	visit(g, func(p orb.Point) bool {
		hit = utils.Contains(boundary, p)
		return !hit
	})
	if hit {
		return true
	}
	// 要素完全包住边界的情况
	c, _ := planar.CentroidArea(boundary)
	return utils.Contains(g, c)
}

// visit 遍历几何的所有顶点，fn 返回 false 时停止，整个遍历被中止时返回 false
func visit(g orb.Geometry, fn func(orb.Point) bool) bool {
	switch g := g.(type) {
	case orb.Point:
		return fn(g)
	case orb.LineString:
		for _, p := range g {
			if !fn(p) {
				return false
			}
		}
	case orb.Ring:
		return visit(orb.LineString(g), fn)
	case orb.Polygon:
		for _, r := range g {
			if !visit(orb.LineString(r), fn) {
				return false
			}
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if !visit(p, fn) {
				return false
			}
		}
	}
	return true
}

// FeaturesFromPlace 查询地名范围内满足标签条件的要素
func (c *Client) FeaturesFromPlace(ctx context.Context, place string, tags map[string][]string) ([]model.Feature, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("必须指定至少一个标签条件")
	}
	boundary, err := c.Geocode(ctx, place)
	if err != nil {
		return nil, err
	}

	data, err := c.Overpass(ctx, FeaturesQuery(tags, boundary.Bound(), QueryTimeout))
	if err != nil {
		return nil, err
	}

	var features []model.Feature
	for _, f := range BuildFeatures(data, tags) {
		// 空几何保留，交由调用方统计
		if f.Geometry == nil || intersects(boundary, f.Geometry) {
			features = append(features, f)
		}
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%s 范围内没有匹配的要素: %w", place, ErrEmptyResult)
	}
	log.Printf("查询到 %d 个要素", len(features))
	return features, nil
}

// NetworkFromPlace 下载地名范围内的路网原始数据，返回边界多边形和 OSM 数据
func (c *Client) NetworkFromPlace(ctx context.Context, place, networkType string) (orb.Geometry, *osm.OSM, error) {
	filter, err := NetworkFilter(networkType)
	if err != nil {
		return nil, nil, err
	}
	boundary, err := c.Geocode(ctx, place)
	if err != nil {
		return nil, nil, err
	}
	data, err := c.Overpass(ctx, NetworkQuery(filter, boundary.Bound(), QueryTimeout))
	if err != nil {
		return nil, nil, err
	}
	if len(data.Ways) == 0 {
		return nil, nil, fmt.Errorf("%s 范围内没有道路: %w", place, ErrEmptyResult)
	}
	return boundary, data, nil
}
