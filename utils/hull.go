package utils

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ConvexHull Andrew 单调链算法计算凸包，返回闭合的逆时针环
// 少于 3 个不共线的点时返回退化环 (面积为 0)
func ConvexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	// 去重
	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || !p.Equal(pts[i-1]) {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		ring := orb.Ring(append([]orb.Point(nil), pts...))
		if len(ring) > 0 {
			ring = append(ring, ring[0])
		}
		return ring
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	// 下凸链
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// 上凸链
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// 最后一个点与起点重合，构成闭合环
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// HullArea 点集凸包的平面面积
func HullArea(points []orb.Point) float64 {
	ring := ConvexHull(points)
	if len(ring) < 4 {
		return 0
	}
	return planar.Area(orb.Polygon{ring})
}

// Contains 判断点是否落在多边形 (Polygon/MultiPolygon/Bound) 内
func Contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	case orb.Ring:
		return planar.RingContains(g, p)
	case orb.Bound:
		return g.Contains(p)
	}
	return false
}
