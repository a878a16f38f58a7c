package algo

import (
	"fmt"
	"sort"
	"strings"

	"street-network/model"
)

// Stats 路网基本统计指标
// 长度单位为米，密度单位为每平方公里
type Stats struct {
	N                         int             `json:"n"`
	M                         int             `json:"m"`
	KAvg                      float64         `json:"k_avg"`
	EdgeLengthTotal           float64         `json:"edge_length_total"`
	EdgeLengthAvg             float64         `json:"edge_length_avg"`
	StreetsPerNodeAvg         float64         `json:"streets_per_node_avg"`
	StreetsPerNodeCounts      map[int]int     `json:"streets_per_node_counts"`
	StreetsPerNodeProportions map[int]float64 `json:"streets_per_node_proportions"`
	IntersectionCount         int             `json:"intersection_count"`
	StreetLengthTotal         float64         `json:"street_length_total"`
	StreetSegmentCount        int             `json:"street_segment_count"`
	StreetLengthAvg           float64         `json:"street_length_avg"`
	CircuityAvg               float64         `json:"circuity_avg"`
	SelfLoopProportion        float64         `json:"self_loop_proportion"`

	// 提供面积时计算
	NodeDensityKm         *float64 `json:"node_density_km,omitempty"`
	IntersectionDensityKm *float64 `json:"intersection_density_km,omitempty"`
	EdgeDensityKm         *float64 `json:"edge_density_km,omitempty"`
	StreetDensityKm       *float64 `json:"street_density_km,omitempty"`

	// 提供合并容差时计算
	CleanIntersectionCount     *int     `json:"clean_intersection_count,omitempty"`
	CleanIntersectionDensityKm *float64 `json:"clean_intersection_density_km,omitempty"`
}

func ptr[T any](v T) *T { return &v }

func edgeLengthTotal(g *Graph) float64 {
	total := 0.0
	for _, e := range g.Edges() {
		total += e.Length
	}
	return total
}

// streetCounts 优先使用节点上已有的 street_count
func streetCounts(g *Graph) map[int64]int {
	for _, n := range g.Nodes {
		if n.StreetCount != 0 {
			counts := make(map[int64]int, len(g.Nodes))
			for id, node := range g.Nodes {
				counts[id] = node.StreetCount
			}
			return counts
		}
	}
	return CountStreetsPerNode(g)
}

// IntersectionCount 道路数不少于 minStreets 的节点数
func IntersectionCount(g *Graph, minStreets int) int {
	count := 0
	for _, c := range streetCounts(g) {
		if c >= minStreets {
			count++
		}
	}
	return count
}

// CircuityAvg 边长度之和与端点直线距离之和的比值
func CircuityAvg(g *Graph) float64 {
	straight := 0.0
	for _, e := range g.Edges() {
		straight += g.NodeDistance(e.U, e.V)
	}
	if straight == 0 {
		return 0
	}
	return edgeLengthTotal(g) / straight
}

// SelfLoopProportion 自环边占比
func SelfLoopProportion(g *Graph) float64 {
	if g.NumEdges() == 0 {
		return 0
	}
	loops := 0
	for _, e := range g.Edges() {
		if e.U == e.V {
			loops++
		}
	}
	return float64(loops) / float64(g.NumEdges())
}

// CleanIntersectionCount 合并相距很近的路口后的路口数
// 断头路节点不参与；半径 tolerance 的缓冲区相交的路口视为同一个
func CleanIntersectionCount(g *Graph, tolerance float64) (int, error) {
	if !g.IsProjected() {
		return 0, ErrNotProjected
	}
	counts := streetCounts(g)
	var pts []model.PointXY
	for _, id := range g.NodeIDs() {
		if counts[id] > 1 {
			pts = append(pts, g.Nodes[id].XY())
		}
	}
	if len(pts) == 0 {
		return 0, nil
	}
	labels := DBSCAN(pts, 2*tolerance, 1)
	clusters := make(map[int]bool)
	for _, l := range labels {
		clusters[l] = true
	}
	return len(clusters), nil
}

// BasicStats 计算路网基本统计
// area 为路网覆盖面积 (平方米)，<=0 时不计算密度；cleanIntTol > 0 时计算合并路口 (需要投影图)
func BasicStats(g *Graph, area, cleanIntTol float64) (Stats, error) {
	if len(g.Nodes) == 0 {
		return Stats{}, ErrEmptyGraph
	}
	s := Stats{
		N:                         len(g.Nodes),
		M:                         g.NumEdges(),
		StreetsPerNodeCounts:      make(map[int]int),
		StreetsPerNodeProportions: make(map[int]float64),
	}
	s.KAvg = 2 * float64(s.M) / float64(s.N)
	s.EdgeLengthTotal = edgeLengthTotal(g)
	if s.M > 0 {
		s.EdgeLengthAvg = s.EdgeLengthTotal / float64(s.M)
	}

	counts := streetCounts(g)
	maxCount, sum := 0, 0
	for _, c := range counts {
		sum += c
		if c > maxCount {
			maxCount = c
		}
	}
	s.StreetsPerNodeAvg = float64(sum) / float64(s.N)
	for i := 0; i <= maxCount; i++ {
		s.StreetsPerNodeCounts[i] = 0
	}
	for _, c := range counts {
		s.StreetsPerNodeCounts[c]++
	}
	for k, v := range s.StreetsPerNodeCounts {
		s.StreetsPerNodeProportions[k] = float64(v) / float64(s.N)
	}
	s.IntersectionCount = IntersectionCount(g, 2)

	gu := g
	if g.Directed {
		gu = ToUndirected(g)
	}
	s.StreetLengthTotal = edgeLengthTotal(gu)
	s.StreetSegmentCount = gu.NumEdges()
	if s.StreetSegmentCount > 0 {
		s.StreetLengthAvg = s.StreetLengthTotal / float64(s.StreetSegmentCount)
	}
	s.CircuityAvg = CircuityAvg(gu)
	s.SelfLoopProportion = SelfLoopProportion(gu)

	if area > 0 {
		areaKm := area / 1e6
		s.NodeDensityKm = ptr(float64(s.N) / areaKm)
		s.IntersectionDensityKm = ptr(float64(s.IntersectionCount) / areaKm)
		s.EdgeDensityKm = ptr(s.EdgeLengthTotal / areaKm)
		s.StreetDensityKm = ptr(s.StreetLengthTotal / areaKm)
	}

	if cleanIntTol > 0 {
		clean, err := CleanIntersectionCount(g, cleanIntTol)
		if err != nil {
			return Stats{}, fmt.Errorf("合并路口失败: %w", err)
		}
		s.CleanIntersectionCount = ptr(clean)
		if area > 0 {
			s.CleanIntersectionDensityKm = ptr(float64(clean) / (area / 1e6))
		}
	}
	return s, nil
}

// String 逐行输出统计结果
func (s Stats) String() string {
	var sb strings.Builder
	line := func(name string, v any) {
		fmt.Fprintf(&sb, "%-30s %v\n", name, v)
	}
	line("n", s.N)
	line("m", s.M)
	line("k_avg", fmt.Sprintf("%.4f", s.KAvg))
	line("edge_length_total", fmt.Sprintf("%.3f", s.EdgeLengthTotal))
	line("edge_length_avg", fmt.Sprintf("%.3f", s.EdgeLengthAvg))
	line("streets_per_node_avg", fmt.Sprintf("%.4f", s.StreetsPerNodeAvg))

	keys := make([]int, 0, len(s.StreetsPerNodeCounts))
	for k := range s.StreetsPerNodeCounts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	counts := make([]string, 0, len(keys))
	props := make([]string, 0, len(keys))
	for _, k := range keys {
		counts = append(counts, fmt.Sprintf("%d: %d", k, s.StreetsPerNodeCounts[k]))
		props = append(props, fmt.Sprintf("%d: %.4f", k, s.StreetsPerNodeProportions[k]))
	}
	line("streets_per_node_counts", "{"+strings.Join(counts, ", ")+"}")
	line("streets_per_node_proportions", "{"+strings.Join(props, ", ")+"}")
	line("intersection_count", s.IntersectionCount)
	line("street_length_total", fmt.Sprintf("%.3f", s.StreetLengthTotal))
	line("street_segment_count", s.StreetSegmentCount)
	line("street_length_avg", fmt.Sprintf("%.3f", s.StreetLengthAvg))
	line("circuity_avg", fmt.Sprintf("%.6f", s.CircuityAvg))
	line("self_loop_proportion", fmt.Sprintf("%.6f", s.SelfLoopProportion))
	if s.NodeDensityKm != nil {
		line("node_density_km", fmt.Sprintf("%.4f", *s.NodeDensityKm))
		line("intersection_density_km", fmt.Sprintf("%.4f", *s.IntersectionDensityKm))
		line("edge_density_km", fmt.Sprintf("%.3f", *s.EdgeDensityKm))
		line("street_density_km", fmt.Sprintf("%.3f", *s.StreetDensityKm))
	}
	if s.CleanIntersectionCount != nil {
		line("clean_intersection_count", *s.CleanIntersectionCount)
		if s.CleanIntersectionDensityKm != nil {
			line("clean_intersection_density_km", fmt.Sprintf("%.4f", *s.CleanIntersectionDensityKm))
		}
	}
	return sb.String()
}
