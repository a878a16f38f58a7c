package algo

import (
	"fmt"

	"street-network/utils"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// centroidLonLat 节点经纬度的平均值
func centroidLonLat(g *Graph) (orb.Point, error) {
	toWGS84, err := utils.Transformer(g.CRS, utils.CRSWGS84)
	if err != nil {
		return orb.Point{}, err
	}
	var sx, sy float64
	for _, n := range g.Nodes {
		p := toWGS84(orb.Point{n.X, n.Y})
		sx += p.Lon()
		sy += p.Lat()
	}
	count := float64(len(g.Nodes))
	return orb.Point{sx / count, sy / count}, nil
}

// ProjectGraph 将图投影到目标坐标系 (返回新图)
// toCRS 为空时投影到节点中心所在的 UTM 投影带
// 从经纬度投影时节点保留原始 Lon/Lat
func ProjectGraph(g *Graph, toCRS string) (*Graph, error) {
	if len(g.Nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	if toCRS == "" {
		c, err := centroidLonLat(g)
		if err != nil {
			return nil, err
		}
		toCRS = utils.UTMForPoint(c.Lon(), c.Lat()).EPSG()
	}

	proj, err := utils.Transformer(g.CRS, toCRS)
	if err != nil {
		return nil, fmt.Errorf("投影图失败: %w", err)
	}

	h := g.Copy()
	fromGeographic := !g.IsProjected()
	for _, n := range h.Nodes {
		if fromGeographic {
			n.Lon, n.Lat = n.X, n.Y
		}
		p := proj(orb.Point{n.X, n.Y})
		n.X, n.Y = p.X(), p.Y()
	}
	for _, e := range h.Edges() {
		if e.HasGeometry() {
			e.Geometry = project.LineString(e.Geometry, proj)
		}
	}
	h.CRS = toCRS
	return h, nil
}

// NodesConvexHullArea 投影图节点凸包面积 (平方米)
func NodesConvexHullArea(g *Graph) (float64, error) {
	if !g.IsProjected() {
		return 0, ErrNotProjected
	}
	pts := make([]orb.Point, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		pts = append(pts, orb.Point{n.X, n.Y})
	}
	return utils.HullArea(pts), nil
}
