package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"street-network/algo"
	"street-network/model"
	"street-network/utils"
)

// RouteRequest 路径规划请求，节点 ID 与经纬度二选一
type RouteRequest struct {
	OrigID  int64    `json:"orig_id"`
	OrigLat *float64 `json:"orig_lat,omitempty"`
	OrigLng *float64 `json:"orig_lng,omitempty"`
	DestID  int64    `json:"dest_id"`
	DestLat *float64 `json:"dest_lat,omitempty"`
	DestLng *float64 `json:"dest_lng,omitempty"`
	Weight  string   `json:"weight"` // length, travel_time
}

// RouteResponse 路径规划响应
type RouteResponse struct {
	Found      bool          `json:"found"`
	Path       []NodeInfo    `json:"path,omitempty"`
	Segments   []SegmentInfo `json:"segments,omitempty"`
	Length     float64       `json:"length,omitempty"`      // 米
	TravelTime float64       `json:"travel_time,omitempty"` // 秒
	CrowFlies  float64       `json:"crow_flies,omitempty"`  // 起终点大圆距离 (米)
	Message    string        `json:"message,omitempty"`
}

// NodeInfo 节点信息
type NodeInfo struct {
	ID          int64    `json:"id"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	StreetCount int      `json:"street_count"`
	Highway     string   `json:"highway,omitempty"`
	Streets     []string `json:"streets,omitempty"`
}

// SegmentInfo 路径段信息
type SegmentInfo struct {
	FromID     int64    `json:"from_id"`
	ToID       int64    `json:"to_id"`
	Length     float64  `json:"length"`
	TravelTime float64  `json:"travel_time"`
	Name       []string `json:"name,omitempty"`
	Highway    []string `json:"highway,omitempty"`
}

// lonLat 节点的经纬度，投影图使用保留的原始经纬度
func lonLat(n *model.Node) (float64, float64) {
	if Graph.IsProjected() {
		return n.Lon, n.Lat
	}
	return n.X, n.Y
}

func nodeInfo(n *model.Node) NodeInfo {
	lon, lat := lonLat(n)
	return NodeInfo{
		ID:          n.ID,
		Lat:         lat,
		Lng:         lon,
		StreetCount: n.StreetCount,
		Highway:     n.Highway,
	}
}

// resolveNode 请求给出经纬度时找最近节点，否则使用节点 ID
func resolveNode(id int64, lat, lng *float64) (int64, error) {
	if lat == nil || lng == nil {
		return id, nil
	}
	p := orb.Point{*lng, *lat}
	if Graph.IsProjected() {
		proj, err := utils.Transformer(utils.CRSWGS84, Graph.CRS)
		if err != nil {
			return 0, err
		}
		p = proj(p)
	}
	nearest, _ := index.Nearest(p.X(), p.Y())
	return nearest, nil
}

// FindRoute 路径规划接口
func FindRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}
	if !graphLoaded(c) {
		return
	}

	orig, err := resolveNode(req.OrigID, req.OrigLat, req.OrigLng)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	dest, err := resolveNode(req.DestID, req.DestLat, req.DestLng)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := Graph.Route(orig, dest, req.Weight)
	switch {
	case errors.Is(err, algo.ErrNoPath):
		c.JSON(http.StatusOK, RouteResponse{Found: false, Message: "未找到符合条件的路径"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path := make([]NodeInfo, 0, len(result.Path))
	for _, id := range result.Path {
		path = append(path, nodeInfo(Graph.Nodes[id]))
	}
	segments := make([]SegmentInfo, 0, len(result.Segments))
	for _, seg := range result.Segments {
		segments = append(segments, SegmentInfo{
			FromID:     seg.From,
			ToID:       seg.To,
			Length:     seg.Length,
			TravelTime: seg.TravelTime,
			Name:       seg.Name,
			Highway:    seg.Highway,
		})
	}

	first, last := path[0], path[len(path)-1]
	c.JSON(http.StatusOK, RouteResponse{
		Found:      true,
		Path:       path,
		Segments:   segments,
		Length:     result.Length,
		TravelTime: result.TravelTime,
		CrowFlies:  utils.HaversineDistance(model.Point{Lat: first.Lat, Lng: first.Lng}, model.Point{Lat: last.Lat, Lng: last.Lng}),
		Message:    "路径规划成功",
	})
}

// GetNodes 获取所有节点信息
func GetNodes(c *gin.Context) {
	if !graphLoaded(c) {
		return
	}

	nodes := make([]NodeInfo, 0, len(Graph.Nodes))
	for _, id := range Graph.NodeIDs() {
		nodes = append(nodes, nodeInfo(Graph.Nodes[id]))
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(nodes),
		"nodes": nodes,
	})
}

// GetNodeByID 根据 ID 获取节点信息
func GetNodeByID(c *gin.Context) {
	if !graphLoaded(c) {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "节点 ID 无效"})
		return
	}
	node := Graph.Nodes[id]
	if node == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "节点不存在"})
		return
	}

	info := nodeInfo(node)
	info.Streets = streetNames(id)
	c.JSON(http.StatusOK, info)
}

// streetNames 与节点相连的道路名称 (去重、排序)
func streetNames(id int64) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(edges []*model.Edge) {
		for _, e := range edges {
			for _, name := range e.Name {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	add(Graph.AdjList[id])
	add(Graph.InList[id])
	sort.Strings(names)
	return names
}

// SearchNodes 按相连道路名称搜索节点 (不区分大小写)
func SearchNodes(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少搜索关键词"})
		return
	}
	if !graphLoaded(c) {
		return
	}

	q := strings.ToLower(query)
	results := make([]NodeInfo, 0)
	for _, id := range Graph.NodeIDs() {
		streets := streetNames(id)
		for _, name := range streets {
			if strings.Contains(strings.ToLower(name), q) {
				info := nodeInfo(Graph.Nodes[id])
				info.Streets = streets
				results = append(results, info)
				break
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}
