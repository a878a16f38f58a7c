package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/wroge/wgs84"
)

// 常用坐标参考系
const (
	CRSWGS84       = "EPSG:4326"
	CRSWebMercator = "EPSG:3857"
)

// UTM 横轴墨卡托投影带
type UTM struct {
	Zone  int
	South bool
}

// UTMZone 根据经度计算 UTM 投影带号
func UTMZone(lon float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	if zone < 1 {
		zone = 1
	}
	return zone
}

// UTMForPoint 返回包含该经纬度点的 UTM 投影带
func UTMForPoint(lon, lat float64) UTM {
	return UTM{Zone: UTMZone(lon), South: lat < 0}
}

// EPSG 投影带对应的 EPSG 编码，北半球 326zz，南半球 327zz
func (u UTM) EPSG() string {
	base := 32600
	if u.South {
		base = 32700
	}
	return fmt.Sprintf("EPSG:%d", base+u.Zone)
}

// transform 经纬度与该投影带之间的转换函数
func (u UTM) transform(inverse bool) wgs84.Func {
	zone := wgs84.UTM(float64(u.Zone), !u.South)
	if inverse {
		return zone.To(wgs84.LonLat())
	}
	return wgs84.LonLat().To(zone)
}

// Forward 经纬度 -> UTM 平面坐标 (米)
func (u UTM) Forward(p orb.Point) orb.Point {
	x, y, _ := u.transform(false)(p.Lon(), p.Lat(), 0)
	return orb.Point{x, y}
}

// Inverse UTM 平面坐标 -> 经纬度
func (u UTM) Inverse(p orb.Point) orb.Point {
	lon, lat, _ := u.transform(true)(p.X(), p.Y(), 0)
	return orb.Point{lon, lat}
}

// projection 把 UTM 转换包装成 orb 投影函数
func (u UTM) projection(inverse bool) orb.Projection {
	f := u.transform(inverse)
	return func(p orb.Point) orb.Point {
		a, b, _ := f(p.X(), p.Y(), 0)
		return orb.Point{a, b}
	}
}

// ParseUTM 从 EPSG:326zz / EPSG:327zz 解析投影带
func ParseUTM(crs string) (UTM, bool) {
	code, ok := epsgCode(crs)
	if !ok {
		return UTM{}, false
	}
	switch {
	case code > 32600 && code <= 32660:
		return UTM{Zone: code - 32600}, true
	case code > 32700 && code <= 32760:
		return UTM{Zone: code - 32700, South: true}, true
	}
	return UTM{}, false
}

func epsgCode(crs string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(crs))
	s = strings.TrimPrefix(s, "EPSG:")
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return code, true
}

// IsGeographic 判断坐标系是否为经纬度
func IsGeographic(crs string) bool {
	code, ok := epsgCode(crs)
	return ok && code == 4326
}

// toWGS84 返回 crs -> 经纬度的投影函数
func toWGS84(crs string) (orb.Projection, error) {
	if IsGeographic(crs) {
		return func(p orb.Point) orb.Point { return p }, nil
	}
	if code, ok := epsgCode(crs); ok && code == 3857 {
		return project.Mercator.ToWGS84, nil
	}
	if u, ok := ParseUTM(crs); ok {
		return u.projection(true), nil
	}
	return nil, fmt.Errorf("不支持的坐标系: %s", crs)
}

// fromWGS84 返回经纬度 -> crs 的投影函数
func fromWGS84(crs string) (orb.Projection, error) {
	if IsGeographic(crs) {
		return func(p orb.Point) orb.Point { return p }, nil
	}
	if code, ok := epsgCode(crs); ok && code == 3857 {
		return project.WGS84.ToMercator, nil
	}
	if u, ok := ParseUTM(crs); ok {
		return u.projection(false), nil
	}
	return nil, fmt.Errorf("不支持的坐标系: %s", crs)
}

// Transformer 返回 from -> to 的坐标转换函数 (经 WGS84 中转)
func Transformer(from, to string) (orb.Projection, error) {
	inv, err := toWGS84(from)
	if err != nil {
		return nil, err
	}
	fwd, err := fromWGS84(to)
	if err != nil {
		return nil, err
	}
	return func(p orb.Point) orb.Point { return fwd(inv(p)) }, nil
}

// Transform 将几何对象从 from 坐标系转换到 to 坐标系
func Transform(g orb.Geometry, from, to string) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	proj, err := Transformer(from, to)
	if err != nil {
		return nil, err
	}
	return project.Geometry(orb.Clone(g), proj), nil
}
