package algo

import (
	"fmt"
	"log"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"street-network/model"
	"street-network/utils"
)

// centroid 几何中心，点直接返回
func centroid(g orb.Geometry) (orb.Point, bool) {
	switch geom := g.(type) {
	case orb.Point:
		return geom, true
	case orb.Polygon:
		c, area := planar.CentroidArea(geom)
		if area == 0 {
			return orb.Point{}, false
		}
		return c, true
	}
	return orb.Point{}, false
}

// DedupeFeatures 合并相互距离在 eps 米以内的要素
// 只保留点和单个多边形，多边形取质心，在 Web 墨卡托下聚类，每个簇保留第一个成员，噪声点各自保留
// 返回的要素几何为经纬度下的质心点，labels 与输入的点/面要素一一对应
func DedupeFeatures(features []model.Feature, eps float64, minPts int) ([]model.Feature, []int, error) {
	var kept []model.Feature
	var points []model.PointXY
	for _, f := range features {
		switch f.Geometry.(type) {
		case orb.Point, orb.Polygon:
		default:
			continue
		}
		projected, err := utils.Transform(f.Geometry, utils.CRSWGS84, utils.CRSWebMercator)
		if err != nil {
			return nil, nil, fmt.Errorf("要素 %s 投影失败: %w", f.Key(), err)
		}
		c, ok := centroid(projected)
		if !ok {
			log.Printf("要素 %s 几何为空，跳过", f.Key())
			continue
		}
		kept = append(kept, f)
		points = append(points, model.PointXY{X: c.X(), Y: c.Y()})
	}
	if len(kept) == 0 {
		return nil, nil, nil
	}

	labels := DBSCAN(points, eps, minPts)
	toWGS84, err := utils.Transformer(utils.CRSWebMercator, utils.CRSWGS84)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[int]bool)
	var unique []model.Feature
	for i, f := range kept {
		label := labels[i]
		if label != Noise {
			if seen[label] {
				continue
			}
			seen[label] = true
		}
		out := f
		out.Tags = make(map[string]string, len(f.Tags))
		for k, v := range f.Tags {
			out.Tags[k] = v
		}
		out.Cluster = label
		out.Geometry = toWGS84(orb.Point{points[i].X, points[i].Y})
		unique = append(unique, out)
	}
	return unique, labels, nil
}

// GeometryStats 几何有效性统计
type GeometryStats struct {
	Total   int            `json:"total"`
	Null    int            `json:"null"`
	Empty   int            `json:"empty"`
	NonNull int            `json:"non_null"`
	ByType  map[string]int `json:"by_type"`
}

// isEmpty 几何不含任何坐标
func isEmpty(g orb.Geometry) bool {
	switch geom := g.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(geom) == 0
	case orb.LineString:
		return len(geom) == 0
	case orb.MultiLineString:
		return len(geom) == 0
	case orb.Ring:
		return len(geom) == 0
	case orb.Polygon:
		return len(geom) == 0 || len(geom[0]) == 0
	case orb.MultiPolygon:
		return len(geom) == 0
	case orb.Collection:
		return len(geom) == 0
	}
	return false
}

// GeometryReport 统计空几何和非空几何数量
func GeometryReport(features []model.Feature) GeometryStats {
	s := GeometryStats{Total: len(features), ByType: make(map[string]int)}
	for _, f := range features {
		if f.Geometry == nil {
			s.Null++
			continue
		}
		s.NonNull++
		if isEmpty(f.Geometry) {
			s.Empty++
		}
		s.ByType[f.GeometryType()]++
	}
	return s
}
