package model

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Feature 兴趣点要素 (门店、建筑等)，来自 OSM 节点/路径/关系
type Feature struct {
	ElementType string            `json:"element_type"` // node, way, relation
	ID          int64             `json:"id"`
	Tags        map[string]string `json:"tags"`
	Geometry    orb.Geometry      `json:"-"`
	Cluster     int               `json:"cluster"` // 去重后的簇编号，-1 表示噪声
}

// Key 要素唯一标识，如 "way/123"
func (f Feature) Key() string {
	return fmt.Sprintf("%s/%d", f.ElementType, f.ID)
}

// Name 要素名称，没有时返回品牌
func (f Feature) Name() string {
	if n := f.Tags["name"]; n != "" {
		return n
	}
	return f.Tags["brand"]
}

// GeometryType 几何类型名称，空几何返回 ""
func (f Feature) GeometryType() string {
	if f.Geometry == nil {
		return ""
	}
	return f.Geometry.GeoJSONType()
}
