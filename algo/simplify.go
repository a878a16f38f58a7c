package algo

import (
	"errors"
	"log"

	"street-network/model"

	"github.com/paulmach/orb"
)

// ErrAlreadySimplified 图已经简化过
var ErrAlreadySimplified = errors.New("图已经简化过, 不能重复简化")

// isEndpoint 判断节点是否为道路端点 (需要保留的节点)
//  1. 有自环
//  2. 出度或入度为 0 (断头路起止点)
//  3. 不是 "恰好 2 个邻居且度为 2 或 4" 的中间节点
func isEndpoint(g *Graph, id int64) bool {
	neighbors := make(map[int64]bool)
	for _, n := range g.Successors(id) {
		neighbors[n] = true
	}
	for _, n := range g.Predecessors(id) {
		neighbors[n] = true
	}

	if neighbors[id] {
		return true
	}
	if g.OutDegree(id) == 0 || g.InDegree(id) == 0 {
		return true
	}
	d := g.OutDegree(id) + g.InDegree(id)
	return !(len(neighbors) == 2 && (d == 2 || d == 4))
}

func contains(path []int64, id int64) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

// buildPath 从端点出发沿中间节点一直走到下一个端点
func buildPath(g *Graph, endpoint, successor int64, endpoints map[int64]bool) []int64 {
	path := []int64{endpoint, successor}
	for _, next := range g.Successors(successor) {
		if contains(path, next) {
			continue
		}
		path = append(path, next)
		current := next
		for !endpoints[current] {
			var candidates []int64
			for _, n := range g.Successors(current) {
				if !contains(path, n) {
					candidates = append(candidates, n)
				}
			}
			switch len(candidates) {
			case 1:
				current = candidates[0]
				path = append(path, current)
			case 0:
				// 回到起点的环
				if contains(g.Successors(current), endpoint) {
					return append(path, endpoint)
				}
				log.Printf("警告: 简化路径在节点 %d 意外结束", current)
				return path
			default:
				// 中间节点最多两个邻居，走到这里说明端点判断有误
				log.Printf("警告: 节点 %d 有多个后继, 路径截断", current)
				return path
			}
		}
		return path
	}
	return path
}

// pathsToSimplify 所有 "端点 -> 中间节点... -> 端点" 路径
func pathsToSimplify(g *Graph) [][]int64 {
	endpoints := make(map[int64]bool)
	for _, id := range g.NodeIDs() {
		if isEndpoint(g, id) {
			endpoints[id] = true
		}
	}

	var paths [][]int64
	for _, id := range g.NodeIDs() {
		if !endpoints[id] {
			continue
		}
		for _, succ := range g.Successors(id) {
			if !endpoints[succ] {
				paths = append(paths, buildPath(g, id, succ, endpoints))
			}
		}
	}
	return paths
}

// appendUnique 保持首次出现顺序的去重追加
func appendUnique[T comparable](dst []T, values ...T) []T {
	for _, v := range values {
		if !containsValue(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func containsValue[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// mergePath 合并路径上各段边的属性: 长度求和，其余属性去重合并
func mergePath(g *Graph, path []int64) *model.Edge {
	merged := &model.Edge{U: path[0], V: path[len(path)-1]}
	first := true
	for i := 1; i < len(path); i++ {
		candidates := g.EdgesBetween(path[i-1], path[i])
		if len(candidates) == 0 {
			continue
		}
		// 中间节点间的平行边只取第一条
		seg := candidates[0]
		merged.Length += seg.Length
		merged.OSMIDs = appendUnique(merged.OSMIDs, seg.OSMIDs...)
		merged.Highway = appendUnique(merged.Highway, seg.Highway...)
		merged.Name = appendUnique(merged.Name, seg.Name...)
		merged.MaxSpeed = appendUnique(merged.MaxSpeed, seg.MaxSpeed...)
		merged.Lanes = appendUnique(merged.Lanes, seg.Lanes...)
		merged.Ref = appendUnique(merged.Ref, seg.Ref...)
		merged.Reversed = appendUnique(merged.Reversed, seg.Reversed...)
		if first {
			merged.Oneway = seg.Oneway
			first = false
		} else {
			merged.Oneway = merged.Oneway && seg.Oneway
		}
	}

	geom := make(orb.LineString, 0, len(path))
	for _, id := range path {
		n := g.Nodes[id]
		geom = append(geom, orb.Point{n.X, n.Y})
	}
	merged.Geometry = geom
	return merged
}

// Simplify 删除道路中间的非端点节点，把它们之间的边合并成一条带折线几何的边
// 没有端点的独立环保持原样
func Simplify(g *Graph) error {
	if g.Simplified {
		return ErrAlreadySimplified
	}
	initialNodes, initialEdges := len(g.Nodes), g.NumEdges()

	remove := make(map[int64]bool)
	var add []*model.Edge
	for _, path := range pathsToSimplify(g) {
		add = append(add, mergePath(g, path))
		for _, id := range path[1 : len(path)-1] {
			remove[id] = true
		}
	}

	for _, e := range add {
		g.AddEdge(e)
	}
	g.RemoveNodes(remove)
	g.Simplified = true

	log.Printf("简化完成: 节点 %d -> %d, 边 %d -> %d",
		initialNodes, len(g.Nodes), initialEdges, g.NumEdges())
	return nil
}

// SetStreetCounts 写入每个节点的物理道路数
func SetStreetCounts(g *Graph) {
	counts := CountStreetsPerNode(g)
	for id, n := range g.Nodes {
		n.StreetCount = counts[id]
	}
}

// CountStreetsPerNode 统计每个节点连接的物理道路数
// 双向道路的正反两条边算一条，平行边分别计数，自环计 2 次 (只算一份)
func CountStreetsPerNode(g *Graph) map[int64]int {
	type pair struct{ a, b int64 }
	type keyed struct {
		pair
		key int
	}
	norm := func(u, v int64) pair {
		if u > v {
			u, v = v, u
		}
		return pair{u, v}
	}

	streets := make(map[keyed]bool)
	selfLoops := make(map[int64]bool)
	for _, e := range g.Edges() {
		if e.U == e.V {
			selfLoops[e.U] = true
			continue
		}
		streets[keyed{norm(e.U, e.V), e.Key}] = true
	}

	counts := make(map[int64]int, len(g.Nodes))
	for id := range g.Nodes {
		counts[id] = 0
	}
	for s := range streets {
		counts[s.a]++
		counts[s.b]++
	}
	for id := range selfLoops {
		counts[id] += 2
	}
	return counts
}
