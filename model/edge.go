package model

import "github.com/paulmach/orb"

// Edge 对应两个节点之间的一条有向路段
// 简化合并后多值属性保存为去重列表
type Edge struct {
	U        int64          `json:"u"`
	V        int64          `json:"v"`
	Key      int            `json:"key"`
	OSMIDs   []int64        `json:"osmid"`
	Length   float64        `json:"length"` // 米
	Highway  []string       `json:"highway,omitempty"`
	Name     []string       `json:"name,omitempty"`
	MaxSpeed []string       `json:"maxspeed,omitempty"`
	Lanes    []string       `json:"lanes,omitempty"`
	Ref      []string       `json:"ref,omitempty"`
	Oneway   bool           `json:"oneway"`
	Reversed []bool         `json:"reversed"`
	Geometry orb.LineString `json:"-"` // nil 表示两端点之间的直线

	// --- 下面的字段由路网计算填充 ---
	SpeedKPH   float64 `json:"speed_kph,omitempty"`
	TravelTime float64 `json:"travel_time,omitempty"` // 秒
	Centrality float64 `json:"edge_centrality,omitempty"`
}

// FirstHighway 返回第一个道路等级，用于按类型统计
func (e *Edge) FirstHighway() string {
	if len(e.Highway) == 0 {
		return ""
	}
	return e.Highway[0]
}

// HasGeometry 是否带有折线几何
func (e *Edge) HasGeometry() bool {
	return len(e.Geometry) > 1
}

// Clone 深拷贝一条边
func (e *Edge) Clone() *Edge {
	c := *e
	c.OSMIDs = append([]int64(nil), e.OSMIDs...)
	c.Highway = append([]string(nil), e.Highway...)
	c.Name = append([]string(nil), e.Name...)
	c.MaxSpeed = append([]string(nil), e.MaxSpeed...)
	c.Lanes = append([]string(nil), e.Lanes...)
	c.Ref = append([]string(nil), e.Ref...)
	c.Reversed = append([]bool(nil), e.Reversed...)
	if e.Geometry != nil {
		c.Geometry = e.Geometry.Clone()
	}
	return &c
}
