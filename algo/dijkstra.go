package algo

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"street-network/model"
)

// ErrNoPath 起点无法到达终点
var ErrNoPath = errors.New("未找到路径")

// EdgeWeight 边权重
type EdgeWeight func(e *model.Edge) float64

// 支持的权重
const (
	WeightLength     = "length"
	WeightTravelTime = "travel_time"
)

// WeightFunc 根据属性名返回权重函数
func WeightFunc(weight string) (EdgeWeight, error) {
	switch weight {
	case WeightLength, "":
		return func(e *model.Edge) float64 { return e.Length }, nil
	case WeightTravelTime:
		return func(e *model.Edge) float64 { return e.TravelTime }, nil
	case "edge_centrality":
		return func(e *model.Edge) float64 { return e.Centrality }, nil
	}
	return nil, fmt.Errorf("不支持的权重属性: %q", weight)
}

// PathSegment 路径段信息
type PathSegment struct {
	From       int64    `json:"from"`
	To         int64    `json:"to"`
	Key        int      `json:"key"`
	Length     float64  `json:"length"`      // 米
	TravelTime float64  `json:"travel_time"` // 秒
	Name       []string `json:"name,omitempty"`
	Highway    []string `json:"highway,omitempty"`
}

// PathResult 路径规划结果
type PathResult struct {
	Path       []int64       // 节点 ID 序列
	Segments   []PathSegment // 路径段详情
	Weight     float64       // 总权重
	Length     float64       // 总距离 (米)
	TravelTime float64       // 预计总时间 (秒)
}

// PriorityQueueItem 优先队列中的元素
type PriorityQueueItem struct {
	NodeID int64
	Cost   float64
	Index  int // 在堆中的索引
}

// PriorityQueue 实现 heap.Interface 接口的优先队列
type PriorityQueue []*PriorityQueueItem

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	return pq[i].Cost < pq[j].Cost
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*PriorityQueueItem)
	item.Index = n
	*pq = append(*pq, item)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // 避免内存泄漏
	item.Index = -1 // 标记为已移除
	*pq = old[0 : n-1]
	return item
}

// minEdge 节点间权重最小的平行边
func (g *Graph) minEdge(u, v int64, wf EdgeWeight) *model.Edge {
	var best *model.Edge
	for _, e := range g.EdgesBetween(u, v) {
		if best == nil || wf(e) < wf(best) {
			best = e
		}
	}
	return best
}

// ShortestPath Dijkstra 算法求 orig -> dest 的最小权重路径
// 平行边取权重最小者；orig == dest 时返回单节点路径
func (g *Graph) ShortestPath(orig, dest int64, weight string) ([]int64, error) {
	wf, err := WeightFunc(weight)
	if err != nil {
		return nil, err
	}
	if g.Nodes[orig] == nil {
		return nil, fmt.Errorf("起点 %d: %w", orig, ErrNodeNotFound)
	}
	if g.Nodes[dest] == nil {
		return nil, fmt.Errorf("终点 %d: %w", dest, ErrNodeNotFound)
	}
	if orig == dest {
		return []int64{orig}, nil
	}

	// 初始化代价和前驱
	cost := map[int64]float64{orig: 0}
	prev := make(map[int64]int64)
	visited := make(map[int64]bool)

	pq := make(PriorityQueue, 0)
	heap.Init(&pq)
	heap.Push(&pq, &PriorityQueueItem{NodeID: orig, Cost: 0})

	// Dijkstra 主循环
	for pq.Len() > 0 {
		current := heap.Pop(&pq).(*PriorityQueueItem)
		id := current.NodeID

		// 如果已访问过，跳过
		if visited[id] {
			continue
		}
		visited[id] = true

		// 如果到达终点，提前退出
		if id == dest {
			break
		}

		for _, e := range g.GetNeighbors(id) {
			next := Other(e, id)
			w := wf(e)
			if math.IsNaN(w) || w < 0 {
				return nil, fmt.Errorf("边 (%d, %d, %d) 权重无效: %v", e.U, e.V, e.Key, w)
			}
			newCost := cost[id] + w
			if old, ok := cost[next]; !ok || newCost < old {
				cost[next] = newCost
				prev[next] = id
				heap.Push(&pq, &PriorityQueueItem{NodeID: next, Cost: newCost})
			}
		}
	}

	if !visited[dest] {
		return nil, fmt.Errorf("%d -> %d: %w", orig, dest, ErrNoPath)
	}

	// 回溯路径
	path := []int64{dest}
	for at := dest; at != orig; {
		at = prev[at]
		path = append(path, at)
	}
	slices.Reverse(path)
	return path, nil
}

// Route 求最短路径并汇总路径段
func (g *Graph) Route(orig, dest int64, weight string) (PathResult, error) {
	path, err := g.ShortestPath(orig, dest, weight)
	if err != nil {
		return PathResult{}, err
	}
	edges, err := g.RouteEdges(path, weight)
	if err != nil {
		return PathResult{}, err
	}
	wf, _ := WeightFunc(weight)

	result := PathResult{Path: path}
	for i, e := range edges {
		result.Weight += wf(e)
		result.Length += e.Length
		result.TravelTime += e.TravelTime
		result.Segments = append(result.Segments, PathSegment{
			From:       path[i],
			To:         path[i+1],
			Key:        e.Key,
			Length:     e.Length,
			TravelTime: e.TravelTime,
			Name:       e.Name,
			Highway:    e.Highway,
		})
	}
	return result, nil
}

// RouteEdges 路径上每一步使用的边 (平行边取权重最小者)
func (g *Graph) RouteEdges(route []int64, weight string) ([]*model.Edge, error) {
	wf, err := WeightFunc(weight)
	if err != nil {
		return nil, err
	}
	edges := make([]*model.Edge, 0, len(route))
	for i := 1; i < len(route); i++ {
		e := g.minEdge(route[i-1], route[i], wf)
		if e == nil {
			return nil, fmt.Errorf("节点 %d 与 %d 之间没有边", route[i-1], route[i])
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// RouteLength 路径总长度 (米)，逐步取长度最短的平行边
func (g *Graph) RouteLength(route []int64) (float64, error) {
	edges, err := g.RouteEdges(route, WeightLength)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, e := range edges {
		total += e.Length
	}
	return total, nil
}

// FormatPath 格式化路径结果为可读字符串
func (g *Graph) FormatPath(result PathResult) string {
	if len(result.Path) == 0 {
		return "未找到路径"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "总距离: %.2f 米 (%.2f 公里)\n", result.Length, result.Length/1000)
	fmt.Fprintf(&sb, "预计时间: %.0f 秒 (%.1f 分钟)\n", result.TravelTime, result.TravelTime/60)
	sb.WriteString("路径:\n")
	for i, seg := range result.Segments {
		name := strings.Join(seg.Name, "/")
		if name == "" {
			name = "(无名道路)"
		}
		fmt.Fprintf(&sb, "%d. %d -> %d  %s  %.1f 米\n", i+1, seg.From, seg.To, name, seg.Length)
	}
	return sb.String()
}
