package utils

import (
	"math"
	"street-network/model"

	"github.com/paulmach/orb"
)

// EarthRadiusMean 平均地球半径 (米)，大圆距离使用
const EarthRadiusMean = 6371009.0

// DegreesToRadians 角度转弧度
func DegreesToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// GreatCircle Haversine 公式计算两点间大圆距离 (米)
// 用于路段长度、直线距离和最近节点搜索
func GreatCircle(lat1, lng1, lat2, lng2 float64) float64 {
	y1 := DegreesToRadians(lat1)
	y2 := DegreesToRadians(lat2)
	dy := y2 - y1
	dx := DegreesToRadians(lng2 - lng1)

	// h = sin²(Δlat/2) + cos(lat1) * cos(lat2) * sin²(Δlon/2)
	h := math.Sin(dy/2)*math.Sin(dy/2) +
		math.Cos(y1)*math.Cos(y2)*math.Sin(dx/2)*math.Sin(dx/2)
	// 浮点误差可能让 h 略大于 1
	h = math.Min(1, h)

	arc := 2 * math.Asin(math.Sqrt(h))
	return arc * EarthRadiusMean
}

// HaversineDistance 两个经纬度点之间的大圆距离 (米)
func HaversineDistance(p1, p2 model.Point) float64 {
	return GreatCircle(p1.Lat, p1.Lng, p2.Lat, p2.Lng)
}

// Euclidean 平面直角坐标距离
func Euclidean(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// LineLength 计算折线长度，geographic 为 true 时按大圆距离累加
func LineLength(ls orb.LineString, geographic bool) float64 {
	total := 0.0
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		if geographic {
			total += GreatCircle(a.Lat(), a.Lon(), b.Lat(), b.Lon())
		} else {
			total += Euclidean(a.X(), a.Y(), b.X(), b.Y())
		}
	}
	return total
}
