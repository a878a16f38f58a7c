package model

// Point 代表一个经纬度点 (WGS84)
type Point struct {
	Lat float64 // 纬度
	Lng float64 // 经度
}

// PointXY 代表平面坐标系中的一个点
type PointXY struct {
	X float64 // 东西向距离 (米)
	Y float64 // 南北向距离 (米)
}

// Node 路网中的一个节点 (路口、道路端点)
// X/Y 在地理坐标系下为经度/纬度，投影后为米
type Node struct {
	ID          int64   `json:"osmid"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Lon         float64 `json:"lon,omitempty"` // 投影后保留原始经度
	Lat         float64 `json:"lat,omitempty"` // 投影后保留原始纬度
	StreetCount int     `json:"street_count"`
	Highway     string  `json:"highway,omitempty"` // 如: "traffic_signals", "stop"
	Ref         string  `json:"ref,omitempty"`
}

// XY 返回节点平面坐标
func (n *Node) XY() PointXY {
	return PointXY{X: n.X, Y: n.Y}
}
